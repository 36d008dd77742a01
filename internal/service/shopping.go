package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// ShoppingService builds the aggregated shopping list of a user's cart.
type ShoppingService struct {
	repo   repository.ShoppingRepository
	logger *slog.Logger
}

func NewShoppingService(repo repository.ShoppingRepository, logger *slog.Logger) *ShoppingService {
	return &ShoppingService{repo: repo, logger: logger}
}

// BuildShoppingList sums the ingredient lines of every recipe in userID's
// cart. An empty cart is an error rather than an empty list.
func (s *ShoppingService) BuildShoppingList(ctx context.Context, userID string) ([]model.ShoppingItem, error) {
	if userID == "" {
		return nil, apperror.Unauthorized()
	}

	size, err := s.repo.CartSize(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting cart: %w", err)
	}
	if size == 0 {
		return nil, apperror.EmptyCart()
	}

	lines, err := s.repo.CartLines(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load cart lines",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading cart lines: %w", err)
	}

	items := Aggregate(lines)
	s.logger.Info("shopping list built",
		slog.String("user_id", userID),
		slog.Int("recipes", size),
		slog.Int("items", len(items)),
	)
	return items, nil
}

// Aggregate groups lines by (ingredient name, measurement unit), sums the
// amounts of each group and sorts the result by name, then unit.
//
// Grouping is by name and unit, not by ingredient id: two ingredient
// records sharing both are merged. The result does not depend on the order
// of lines.
func Aggregate(lines []model.CartLine) []model.ShoppingItem {
	type key struct{ name, unit string }

	totals := make(map[key]int, len(lines))
	for _, l := range lines {
		totals[key{l.IngredientName, l.MeasurementUnit}] += l.Amount
	}

	items := make([]model.ShoppingItem, 0, len(totals))
	for k, total := range totals {
		items = append(items, model.ShoppingItem{
			IngredientName:  k.name,
			MeasurementUnit: k.unit,
			TotalAmount:     total,
		})
	}

	slices.SortFunc(items, func(a, b model.ShoppingItem) int {
		return cmp.Or(
			cmp.Compare(a.IngredientName, b.IngredientName),
			cmp.Compare(a.MeasurementUnit, b.MeasurementUnit),
		)
	})
	return items
}
