package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.CatalogRepository = (*DB)(nil)

func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	tag.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (id, name, slug, color) VALUES (?, ?, ?, ?)`,
		tag.ID, tag.Name, tag.Slug, tag.Color,
	)
	if err != nil {
		if classify(err) == constraintUnique {
			return apperror.AlreadyExists(fmt.Sprintf("tag %q already exists", tag.Slug))
		}
		return fmt.Errorf("sqlite: inserting tag %s: %w", tag.Slug, err)
	}
	return nil
}

// GetTag returns the tag with id, or ErrNotFound.
func (db *DB) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	var t model.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug, color FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}
	return &t, nil
}

// ListTags returns every tag in insertion order.
func (db *DB) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, slug, color FROM tags ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Color); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

func (db *DB) CreateIngredient(ctx context.Context, ing *model.Ingredient) error {
	ing.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, measurement_unit) VALUES (?, ?, ?)`,
		ing.ID, ing.Name, ing.MeasurementUnit,
	)
	if err != nil {
		if classify(err) == constraintUnique {
			return apperror.AlreadyExists(fmt.Sprintf("ingredient %q (%s) already exists",
				ing.Name, ing.MeasurementUnit))
		}
		return fmt.Errorf("sqlite: inserting ingredient %s: %w", ing.Name, err)
	}
	return nil
}

// GetIngredient returns the ingredient with id, or ErrNotFound.
func (db *DB) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	var i model.Ingredient
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id,
	).Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %s: %w", id, err)
	}
	return &i, nil
}

// SearchIngredients returns ingredients whose name starts with namePrefix,
// ordered by name. An empty prefix returns every ingredient. SQLite's LIKE
// folds case for ASCII letters only.
func (db *DB) SearchIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	pattern := escapeLike(namePrefix) + "%"

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients
		 WHERE name LIKE ? ESCAPE '\'
		 ORDER BY name, measurement_unit`, pattern)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching ingredients: %w", err)
	}
	defer rows.Close()

	out := []model.Ingredient{}
	for rows.Next() {
		var i model.Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient row: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredients: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
