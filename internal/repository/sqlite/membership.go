package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var (
	_ repository.MembershipRepository = (*DB)(nil)
	_ repository.ShoppingRepository   = (*DB)(nil)
)

// membershipTable describes where one relation kind is stored.
type membershipTable struct {
	table     string
	userCol   string
	targetCol string
	target    string // resource name used in not-found messages
}

var membershipTables = map[model.RelationKind]membershipTable{
	model.RelationFavorite:     {table: "favorites", userCol: "user_id", targetCol: "recipe_id", target: "recipe"},
	model.RelationCart:         {table: "shopping_cart", userCol: "user_id", targetCol: "recipe_id", target: "recipe"},
	model.RelationSubscription: {table: "subscriptions", userCol: "subscriber_id", targetCol: "author_id", target: "user"},
}

func tableFor(kind model.RelationKind) (membershipTable, error) {
	t, ok := membershipTables[kind]
	if !ok {
		return membershipTable{}, fmt.Errorf("sqlite: unknown relation kind %q", kind)
	}
	return t, nil
}

// AddMembership inserts the (userID, targetID) row for kind. The table's
// UNIQUE constraint is the source of truth for duplicates, so two concurrent
// adds of the same pair produce one row and one ErrAlreadyExists.
func (db *DB) AddMembership(ctx context.Context, kind model.RelationKind, userID, targetID string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO `+t.table+` (`+t.userCol+`, `+t.targetCol+`) VALUES (?, ?)`,
		userID, targetID)

	return addError(kind, t, targetID, err)
}

// addError maps the insert error of AddMembership to the error taxonomy.
// Only subscriptions carry a CHECK constraint (no self subscription); any
// other violation or failure is returned wrapped.
func addError(kind model.RelationKind, t membershipTable, targetID string, err error) error {
	if err == nil {
		return nil
	}
	switch classify(err) {
	case constraintUnique:
		return apperror.AlreadyExists(alreadyMessage(kind))
	case constraintForeignKey:
		return apperror.NotFound(t.target, targetID)
	case constraintCheck:
		if kind == model.RelationSubscription {
			return apperror.SelfReference("you can not subscribe to yourself")
		}
	}
	return fmt.Errorf("sqlite: adding %s: %w", kind, err)
}

// RemoveMembership deletes the row and reports whether one existed.
func (db *DB) RemoveMembership(ctx context.Context, kind model.RelationKind, userID, targetID string) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM `+t.table+` WHERE `+t.userCol+` = ? AND `+t.targetCol+` = ?`,
		userID, targetID)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}

// MembershipSet reports which of targetIDs userID holds a kind row for.
// Targets without a row are absent from the map.
func (db *DB) MembershipSet(ctx context.Context, kind model.RelationKind, userID string, targetIDs []string) (map[string]bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(targetIDs))
	if userID == "" || len(targetIDs) == 0 {
		return out, nil
	}

	args := append([]any{userID}, stringArgs(targetIDs)...)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+t.targetCol+` FROM `+t.table+`
		 WHERE `+t.userCol+` = ? AND `+t.targetCol+` IN (`+placeholders(len(targetIDs))+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading %s set: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", kind, err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s rows: %w", kind, err)
	}
	return out, nil
}

// ListSubscribedAuthors returns one page of the authors userID follows,
// ordered by username, and the total count.
func (db *DB) ListSubscribedAuthors(ctx context.Context, userID string, opts repository.ListOptions) ([]model.User, int, error) {
	limit, offset := clampList(opts)

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting subscriptions: %w", err)
	}

	users, err := db.queryUsers(ctx,
		`SELECT `+prefixedUserColumns+` FROM users u
		 JOIN subscriptions s ON s.author_id = u.id
		 WHERE s.subscriber_id = ?
		 ORDER BY u.username
		 LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing subscriptions: %w", err)
	}
	return users, total, nil
}

// CartSize counts the recipes in userID's shopping cart.
func (db *DB) CartSize(ctx context.Context, userID string) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shopping_cart WHERE user_id = ?`, userID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting cart: %w", err)
	}
	return n, nil
}

// CartLines returns every ingredient line of every recipe in userID's cart.
// Summing is left to the caller.
func (db *DB) CartLines(ctx context.Context, userID string) ([]model.CartLine, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.recipe_id, i.name, i.measurement_unit, ri.amount
		 FROM shopping_cart c
		 JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE c.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading cart lines: %w", err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.RecipeID, &l.IngredientName, &l.MeasurementUnit, &l.Amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cart lines: %w", err)
	}
	return lines, nil
}

func alreadyMessage(kind model.RelationKind) string {
	switch kind {
	case model.RelationFavorite:
		return "recipe is already in favorites"
	case model.RelationCart:
		return "recipe is already in the shopping cart"
	default:
		return "you are already subscribed to this user"
	}
}
