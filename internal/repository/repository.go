// Package repository declares the storage interfaces the services depend on.
// The sqlite sub-package is the production implementation; service tests
// use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/foodgram/internal/filter"
	"github.com/sakif/foodgram/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, int, error)
}

type CatalogRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTag(ctx context.Context, id string) (*model.Tag, error)
	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateIngredient(ctx context.Context, ing *model.Ingredient) error
	GetIngredient(ctx context.Context, id string) (*model.Ingredient, error)
	SearchIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error)
}

// RecipeRepository stores recipes with their tag sets and ingredient lines.
//
// CreateRecipe and UpdateRecipe are atomic: the recipe row, its tags and its
// ingredient lines are written in one transaction, and an invalid tag or
// ingredient reference leaves nothing behind. UpdateRecipe replaces the tag
// set when w.TagIDs is non-nil and the ingredient lines when w.Ingredients
// is non-nil.
type RecipeRepository interface {
	CreateRecipe(ctx context.Context, w *model.RecipeWrite) error
	UpdateRecipe(ctx context.Context, w *model.RecipeWrite) error
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	ListRecipes(ctx context.Context, p filter.Predicate, opts ListOptions) ([]model.Recipe, int, error)
	RecipeTags(ctx context.Context, recipeIDs []string) (map[string][]model.Tag, error)
	RecipeIngredients(ctx context.Context, recipeID string) ([]model.RecipeIngredient, error)
	// RecipesByAuthor returns up to limit of the author's newest recipes
	// (all of them when limit < 0) and the author's total recipe count.
	RecipesByAuthor(ctx context.Context, authorID string, limit int) ([]model.RecipeShort, int, error)
}

// MembershipRepository stores favorite, cart and subscription rows.
//
// AddMembership relies on the store's uniqueness constraint: a duplicate
// pair fails with apperror.ErrAlreadyExists even under concurrent adds.
// RemoveMembership reports whether a row was deleted.
type MembershipRepository interface {
	AddMembership(ctx context.Context, kind model.RelationKind, userID, targetID string) error
	RemoveMembership(ctx context.Context, kind model.RelationKind, userID, targetID string) (bool, error)
	MembershipSet(ctx context.Context, kind model.RelationKind, userID string, targetIDs []string) (map[string]bool, error)
	ListSubscribedAuthors(ctx context.Context, userID string, opts ListOptions) ([]model.User, int, error)
}

// ShoppingRepository exposes the cart contents the shopping list is built from.
type ShoppingRepository interface {
	CartSize(ctx context.Context, userID string) (int, error)
	CartLines(ctx context.Context, userID string) ([]model.CartLine, error)
}
