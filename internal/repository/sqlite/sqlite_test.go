package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// newTestDB opens a fresh in-memory database. Each test gets its own, and
// t.Cleanup closes it when the test (and its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newFileTestDB opens a file database in a temp dir. Unlike :memory:, its
// pool holds several connections, so concurrent writes really overlap.
func newFileTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "foodgram.db"))
	if err != nil {
		t.Fatalf("failed to create file test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First " + username,
		LastName:  "Last",
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func createTestTag(t *testing.T, db *DB, slug string) *model.Tag {
	t.Helper()
	tag := &model.Tag{Name: "Tag " + slug, Slug: slug, Color: "#49B64E"}
	if err := db.CreateTag(context.Background(), tag); err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}

func createTestIngredient(t *testing.T, db *DB, name, unit string) *model.Ingredient {
	t.Helper()
	ing := &model.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.CreateIngredient(context.Background(), ing); err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return ing
}

// createTestRecipe writes a recipe with the given tags and ingredient lines.
func createTestRecipe(t *testing.T, db *DB, author *model.User, name string, tags []*model.Tag, lines ...model.IngredientLine) *model.Recipe {
	t.Helper()
	w := &model.RecipeWrite{
		Recipe: model.Recipe{
			AuthorID:    author.ID,
			Name:        name,
			Text:        "Mix and serve.",
			Image:       "recipes/images/" + name + ".png",
			CookingTime: 10,
		},
		Ingredients: lines,
	}
	for _, tag := range tags {
		w.TagIDs = append(w.TagIDs, tag.ID)
	}
	if err := db.CreateRecipe(context.Background(), w); err != nil {
		t.Fatalf("failed to create test recipe %s: %v", name, err)
	}
	return &w.Recipe
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var on int
	if err := db.conn.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}
}

func TestClassify(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "alice")

	_, err := db.conn.Exec(`INSERT INTO users (id, email, username) VALUES (?, ?, ?)`,
		u.ID, "other@example.com", "other")
	if got := classify(err); got != constraintUnique {
		t.Errorf("duplicate primary key: classify() = %v, want unique", got)
	}

	_, err = db.conn.Exec(`INSERT INTO favorites (user_id, recipe_id) VALUES (?, ?)`, u.ID, "missing")
	if got := classify(err); got != constraintForeignKey {
		t.Errorf("missing recipe: classify() = %v, want foreign key", got)
	}

	_, err = db.conn.Exec(`INSERT INTO subscriptions (subscriber_id, author_id) VALUES (?, ?)`, u.ID, u.ID)
	if got := classify(err); got != constraintCheck {
		t.Errorf("self subscription: classify() = %v, want check", got)
	}

	if got := classify(nil); got != constraintNone {
		t.Errorf("classify(nil) = %v, want none", got)
	}
}

func TestClampList(t *testing.T) {
	tests := []struct {
		in         repository.ListOptions
		wantLimit  int
		wantOffset int
	}{
		{repository.ListOptions{}, defaultLimit, 0},
		{repository.ListOptions{Limit: 10, Offset: 20}, 10, 20},
		{repository.ListOptions{Limit: 1000, Offset: -5}, maxLimit, 0},
	}
	for _, tt := range tests {
		limit, offset := clampList(tt.in)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("clampList(%+v) = (%d, %d), want (%d, %d)",
				tt.in, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
