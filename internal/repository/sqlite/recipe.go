package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/filter"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.RecipeRepository = (*DB)(nil)

const recipeColumns = `r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.published_at`

// CreateRecipe inserts the recipe, its tags and its ingredient lines in one
// transaction. It assigns w.Recipe.ID and w.Recipe.PublishedAt.
func (db *DB) CreateRecipe(ctx context.Context, w *model.RecipeWrite) error {
	r := &w.Recipe

	return db.withTx(ctx, func(tx *sql.Tx) error {
		id := xid.New().String()
		published := time.Now().UTC()

		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, author_id, name, text, image, cooking_time, published_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, r.AuthorID, r.Name, r.Text, r.Image, r.CookingTime, published,
		)
		if err != nil {
			return translateRecipeErr(err, "inserting recipe")
		}

		if err := insertTags(ctx, tx, id, w.TagIDs); err != nil {
			return err
		}
		if err := insertIngredients(ctx, tx, id, w.Ingredients); err != nil {
			return err
		}

		r.ID = id
		r.PublishedAt = published
		return nil
	})
}

// UpdateRecipe rewrites the recipe's own columns and, when provided, replaces
// its tag set and ingredient lines. Replacement deletes and re-inserts inside
// the same transaction as the row update. PublishedAt and AuthorID are never
// changed.
func (db *DB) UpdateRecipe(ctx context.Context, w *model.RecipeWrite) error {
	r := &w.Recipe

	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipes SET name = ?, text = ?, image = ?, cooking_time = ? WHERE id = ?`,
			r.Name, r.Text, r.Image, r.CookingTime, r.ID,
		)
		if err != nil {
			return translateRecipeErr(err, "updating recipe")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("recipe", r.ID)
		}

		if w.TagIDs != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, r.ID); err != nil {
				return fmt.Errorf("sqlite: clearing recipe tags: %w", err)
			}
			if err := insertTags(ctx, tx, r.ID, w.TagIDs); err != nil {
				return err
			}
		}
		if w.Ingredients != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, r.ID); err != nil {
				return fmt.Errorf("sqlite: clearing recipe ingredients: %w", err)
			}
			if err := insertIngredients(ctx, tx, r.ID, w.Ingredients); err != nil {
				return err
			}
		}

		return tx.QueryRowContext(ctx,
			`SELECT author_id, published_at FROM recipes WHERE id = ?`, r.ID,
		).Scan(&r.AuthorID, &r.PublishedAt)
	})
}

func insertTags(ctx context.Context, tx *sql.Tx, recipeID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`, recipeID, tagID)
		switch classify(err) {
		case constraintNone:
			if err != nil {
				return fmt.Errorf("sqlite: attaching tag %s: %w", tagID, err)
			}
		case constraintForeignKey:
			return apperror.ValidationFailed("tags", fmt.Sprintf("tag %s does not exist", tagID))
		case constraintUnique:
			return apperror.ValidationFailed("tags", "tags can not repeat")
		default:
			return fmt.Errorf("sqlite: attaching tag %s: %w", tagID, err)
		}
	}
	return nil
}

func insertIngredients(ctx context.Context, tx *sql.Tx, recipeID string, lines []model.IngredientLine) error {
	for pos, line := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, position)
			 VALUES (?, ?, ?, ?)`,
			recipeID, line.IngredientID, line.Amount, pos)
		switch classify(err) {
		case constraintNone:
			if err != nil {
				return fmt.Errorf("sqlite: attaching ingredient %s: %w", line.IngredientID, err)
			}
		case constraintForeignKey:
			return apperror.ValidationFailed("ingredients",
				fmt.Sprintf("ingredient %s does not exist", line.IngredientID))
		case constraintUnique:
			return apperror.ValidationFailed("ingredients", "ingredients can not repeat")
		case constraintCheck:
			return apperror.ValidationFailed("amount", "amount can not be less than 1")
		}
	}
	return nil
}

func translateRecipeErr(err error, op string) error {
	switch classify(err) {
	case constraintCheck:
		return apperror.ValidationFailed("cooking_time", "cooking time can not be less than 1")
	case constraintForeignKey:
		return apperror.ValidationFailed("author", "author does not exist")
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

// GetRecipe returns the recipe row, or ErrNotFound.
func (db *DB) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	r, err := scanRecipe(db.conn.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %s: %w", id, err)
	}
	return r, nil
}

// DeleteRecipe removes the recipe; its tags, ingredient lines, favorites and
// cart rows go with it through ON DELETE CASCADE.
func (db *DB) DeleteRecipe(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("recipe", id)
	}
	return nil
}

// ListRecipes returns one page of recipes matching p, newest first, and the
// total number of matches.
func (db *DB) ListRecipes(ctx context.Context, p filter.Predicate, opts repository.ListOptions) ([]model.Recipe, int, error) {
	if p == nil {
		p = filter.All()
	}
	limit, offset := clampList(opts)
	where, args := p.SQL()

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes r WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting recipes: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE `+where+`
		 ORDER BY r.published_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	recipes := []model.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}
	return recipes, total, nil
}

// RecipeTags loads the tags of several recipes at once, keyed by recipe id.
func (db *DB) RecipeTags(ctx context.Context, recipeIDs []string) (map[string][]model.Tag, error) {
	out := make(map[string][]model.Tag, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT rt.recipe_id, t.id, t.name, t.slug, t.color
		 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id IN (`+placeholders(len(recipeIDs))+`)
		 ORDER BY t.rowid`, stringArgs(recipeIDs)...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading recipe tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID string
		var t model.Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Slug, &t.Color); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe tag row: %w", err)
		}
		out[recipeID] = append(out[recipeID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipe tags: %w", err)
	}
	return out, nil
}

// RecipeIngredients returns the recipe's ingredient lines in the order they
// were written.
func (db *DB) RecipeIngredients(ctx context.Context, recipeID string) ([]model.RecipeIngredient, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ?
		 ORDER BY ri.position`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading recipe ingredients: %w", err)
	}
	defer rows.Close()

	out := []model.RecipeIngredient{}
	for rows.Next() {
		var ri model.RecipeIngredient
		if err := rows.Scan(&ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe ingredient row: %w", err)
		}
		out = append(out, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipe ingredients: %w", err)
	}
	return out, nil
}

// RecipesByAuthor returns up to limit of authorID's newest recipes (all of
// them for a negative limit) and the author's total recipe count.
func (db *DB) RecipesByAuthor(ctx context.Context, authorID string, limit int) ([]model.RecipeShort, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE author_id = ?`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting recipes of %s: %w", authorID, err)
	}

	// LIMIT -1 means no limit in SQLite.
	if limit < 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, image, cooking_time FROM recipes
		 WHERE author_id = ?
		 ORDER BY published_at DESC, id DESC
		 LIMIT ?`, authorID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing recipes of %s: %w", authorID, err)
	}
	defer rows.Close()

	out := []model.RecipeShort{}
	for rows.Next() {
		var s model.RecipeShort
		if err := rows.Scan(&s.ID, &s.Name, &s.Image, &s.CookingTime); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}
	return out, total, nil
}

func scanRecipe(row scanner) (*model.Recipe, error) {
	var r model.Recipe
	if err := row.Scan(
		&r.ID,
		&r.AuthorID,
		&r.Name,
		&r.Text,
		&r.Image,
		&r.CookingTime,
		&r.PublishedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}
