// Package filter builds the recipe list predicate from query options.
//
// A Predicate has two renderings that must always agree:
//   - Match evaluates it against a Subject in memory
//   - SQL renders it as a parameterized WHERE fragment over the recipes
//     table aliased as "r"
//
// Dimensions are combined with AND. Within the tag dimension slugs are
// combined with OR. An option that is absent contributes no constraint.
// Tag and membership conditions are rendered as EXISTS sub-queries so a
// recipe matching several tags still yields one row.
package filter

import (
	"strings"
)

// Subject is the view of one recipe that predicates evaluate against.
// InCart and Favorited are relative to the acting user.
type Subject struct {
	AuthorID  string
	TagSlugs  []string
	InCart    bool
	Favorited bool
}

// Predicate is a combinable condition over recipes.
type Predicate interface {
	Match(s Subject) bool
	SQL() (string, []any)
}

// Options are the recognised filter options. A nil field is absent.
type Options struct {
	Tags        []string
	AuthorID    *string
	IsInCart    *bool
	IsFavorited *bool
}

// Build composes the predicate for opts. Membership options need an acting
// user; for anonymous callers (empty actingUserID) they are ignored.
func Build(opts Options, actingUserID string) Predicate {
	var parts []Predicate

	if len(opts.Tags) > 0 {
		parts = append(parts, TagsAny(opts.Tags...))
	}
	if opts.AuthorID != nil {
		parts = append(parts, AuthorIs(*opts.AuthorID))
	}
	if actingUserID != "" {
		if opts.IsInCart != nil {
			parts = append(parts, InCart(actingUserID, *opts.IsInCart))
		}
		if opts.IsFavorited != nil {
			parts = append(parts, Favorited(actingUserID, *opts.IsFavorited))
		}
	}

	return All(parts...)
}

type allOf []Predicate

// All matches when every part matches. All() matches everything.
func All(parts ...Predicate) Predicate {
	return allOf(parts)
}

func (a allOf) Match(s Subject) bool {
	for _, p := range a {
		if !p.Match(s) {
			return false
		}
	}
	return true
}

func (a allOf) SQL() (string, []any) {
	if len(a) == 0 {
		return "1 = 1", nil
	}
	clauses := make([]string, 0, len(a))
	var args []any
	for _, p := range a {
		c, pa := p.SQL()
		clauses = append(clauses, "("+c+")")
		args = append(args, pa...)
	}
	return strings.Join(clauses, " AND "), args
}

type tagsAny []string

// TagsAny matches recipes carrying at least one of the given tag slugs.
func TagsAny(slugs ...string) Predicate {
	seen := make(map[string]struct{}, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return tagsAny(out)
}

func (t tagsAny) Match(s Subject) bool {
	for _, have := range s.TagSlugs {
		for _, want := range t {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (t tagsAny) SQL() (string, []any) {
	if len(t) == 0 {
		return "1 = 0", nil
	}
	args := make([]any, len(t))
	for i, slug := range t {
		args[i] = slug
	}
	return `EXISTS (SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = r.id AND t.slug IN (` + placeholders(len(t)) + `))`, args
}

type authorIs string

// AuthorIs matches recipes written by the given user.
func AuthorIs(userID string) Predicate {
	return authorIs(userID)
}

func (a authorIs) Match(s Subject) bool { return s.AuthorID == string(a) }

func (a authorIs) SQL() (string, []any) {
	return "r.author_id = ?", []any{string(a)}
}

type membership struct {
	table  string
	userID string
	want   bool
	get    func(Subject) bool
}

// InCart matches recipes that are (want=true) or are not (want=false) in
// userID's shopping cart.
func InCart(userID string, want bool) Predicate {
	return membership{
		table:  "shopping_cart",
		userID: userID,
		want:   want,
		get:    func(s Subject) bool { return s.InCart },
	}
}

// Favorited matches recipes that are (want=true) or are not (want=false)
// in userID's favorites.
func Favorited(userID string, want bool) Predicate {
	return membership{
		table:  "favorites",
		userID: userID,
		want:   want,
		get:    func(s Subject) bool { return s.Favorited },
	}
}

func (m membership) Match(s Subject) bool { return m.get(s) == m.want }

func (m membership) SQL() (string, []any) {
	clause := "EXISTS (SELECT 1 FROM " + m.table +
		" m WHERE m.recipe_id = r.id AND m.user_id = ?)"
	if !m.want {
		clause = "NOT " + clause
	}
	return clause, []any{m.userID}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
