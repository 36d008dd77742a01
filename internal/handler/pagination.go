package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/repository"
)

// Pager reads page/limit query parameters and builds paginated responses.
type Pager struct {
	DefaultLimit int
	MaxLimit     int
}

// Page is the paginated list envelope. Next and Previous are absolute
// URLs, or null at either end.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type pageRequest struct {
	page  int
	limit int
}

func (p pageRequest) listOptions() repository.ListOptions {
	return repository.ListOptions{Limit: p.limit, Offset: (p.page - 1) * p.limit}
}

// parse reads ?page (1-based) and ?limit. A limit above MaxLimit is cut
// down rather than rejected.
func (p Pager) parse(r *http.Request) (pageRequest, error) {
	q := r.URL.Query()
	req := pageRequest{page: 1, limit: p.DefaultLimit}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return pageRequest{}, apperror.ValidationFailed("page", "page must be a positive integer")
		}
		req.page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return pageRequest{}, apperror.ValidationFailed("limit", "limit must be a positive integer")
		}
		req.limit = min(n, p.MaxLimit)
	}
	return req, nil
}

func newPage[T any](r *http.Request, req pageRequest, results []T, count int) Page[T] {
	if results == nil {
		results = []T{}
	}
	out := Page[T]{Count: count, Results: results}
	if req.page*req.limit < count {
		next := pageURL(r, req.page+1)
		out.Next = &next
	}
	if req.page > 1 {
		prev := pageURL(r, req.page-1)
		out.Previous = &prev
	}
	return out
}

// pageURL rebuilds the request URL with page replaced, keeping every other
// query parameter.
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := r.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}

	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}
