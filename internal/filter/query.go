package filter

import (
	"net/url"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
)

// Query parameter names understood by ParseQuery.
const (
	ParamTags        = "tags"
	ParamAuthor      = "author"
	ParamIsInCart    = "is_in_shopping_cart"
	ParamIsFavorited = "is_favorited"
)

// ParseQuery reads filter options from URL query values. Tags may be
// repeated (?tags=lunch&tags=dinner). Boolean options accept 1/0/true/false.
func ParseQuery(q url.Values) (Options, error) {
	var opts Options

	for _, raw := range q[ParamTags] {
		if slug := strings.TrimSpace(raw); slug != "" {
			opts.Tags = append(opts.Tags, slug)
		}
	}

	if author := strings.TrimSpace(q.Get(ParamAuthor)); author != "" {
		opts.AuthorID = &author
	}

	var err error
	if opts.IsInCart, err = parseFlag(q, ParamIsInCart); err != nil {
		return Options{}, err
	}
	if opts.IsFavorited, err = parseFlag(q, ParamIsFavorited); err != nil {
		return Options{}, err
	}

	return opts, nil
}

func parseFlag(q url.Values, name string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(q.Get(name)))
	if raw == "" {
		return nil, nil
	}
	var v bool
	switch raw {
	case "1", "true":
		v = true
	case "0", "false":
		v = false
	default:
		return nil, apperror.ValidationFailed(name, name+" must be 0 or 1")
	}
	return &v, nil
}
