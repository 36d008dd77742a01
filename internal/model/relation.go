package model

import "fmt"

// RelationKind names a membership relation between a user and a target.
// For RelationSubscription the target is an author, otherwise a recipe.
type RelationKind string

const (
	RelationFavorite     RelationKind = "favorite"
	RelationCart         RelationKind = "cart"
	RelationSubscription RelationKind = "subscription"
)

// Valid reports whether k is one of the known relation kinds.
func (k RelationKind) Valid() bool {
	switch k {
	case RelationFavorite, RelationCart, RelationSubscription:
		return true
	}
	return false
}

func (k RelationKind) String() string { return string(k) }

// ParseRelationKind converts s to a RelationKind.
func ParseRelationKind(s string) (RelationKind, error) {
	k := RelationKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("model: unknown relation kind %q", s)
	}
	return k, nil
}

// DesiredState is the membership state a toggle asks for.
type DesiredState int

const (
	Present DesiredState = iota
	Absent
)

func (s DesiredState) String() string {
	if s == Present {
		return "present"
	}
	return "absent"
}
