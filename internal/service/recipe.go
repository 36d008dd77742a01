package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/filter"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/validation"
)

// RecipeInput is the body of a recipe create.
type RecipeInput struct {
	Name        string                 `json:"name" validate:"required,max=200"`
	Text        string                 `json:"text" validate:"required"`
	Image       string                 `json:"image" validate:"required"`
	CookingTime int                    `json:"cooking_time" validate:"gte=1"`
	Tags        []string               `json:"tags"`
	Ingredients []model.IngredientLine `json:"ingredients"`
}

// RecipeUpdate is the body of a partial recipe update. A nil field keeps the
// stored value; a present field is validated like on create, so
// "cooking_time": 0 is rejected rather than ignored. A non-nil Tags or
// Ingredients slice replaces the set wholesale and must not be empty.
type RecipeUpdate struct {
	Name        *string                `json:"name"`
	Text        *string                `json:"text"`
	Image       *string                `json:"image"`
	CookingTime *int                   `json:"cooking_time"`
	Tags        []string               `json:"tags"`
	Ingredients []model.IngredientLine `json:"ingredients"`
}

// merge lays the present fields of u over the stored recipe.
func (u RecipeUpdate) merge(existing *model.Recipe) RecipeInput {
	in := RecipeInput{
		Name:        existing.Name,
		Text:        existing.Text,
		Image:       existing.Image,
		CookingTime: existing.CookingTime,
		Tags:        u.Tags,
		Ingredients: u.Ingredients,
	}
	if u.Name != nil {
		in.Name = strings.TrimSpace(*u.Name)
	}
	if u.Text != nil {
		in.Text = *u.Text
	}
	if u.Image != nil {
		in.Image = *u.Image
	}
	if u.CookingTime != nil {
		in.CookingTime = *u.CookingTime
	}
	return in
}

// RecipeService handles the recipe lifecycle and builds the viewer-relative
// RecipeDetail projection.
type RecipeService struct {
	recipes     repository.RecipeRepository
	memberships repository.MembershipRepository
	users       repository.UserRepository
	logger      *slog.Logger
}

func NewRecipeService(
	recipes repository.RecipeRepository,
	memberships repository.MembershipRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		memberships: memberships,
		users:       users,
		logger:      logger,
	}
}

// Create validates in and stores it as a new recipe by authorID. The recipe
// row, tags and ingredient lines are written atomically.
func (s *RecipeService) Create(ctx context.Context, authorID string, in RecipeInput) (*model.RecipeDetail, error) {
	if authorID == "" {
		return nil, apperror.Unauthorized()
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if err := checkTags(in.Tags); err != nil {
		return nil, err
	}
	if err := checkIngredients(in.Ingredients); err != nil {
		return nil, err
	}

	w := &model.RecipeWrite{
		Recipe: model.Recipe{
			AuthorID:    authorID,
			Name:        in.Name,
			Text:        in.Text,
			Image:       in.Image,
			CookingTime: in.CookingTime,
		},
		TagIDs:      in.Tags,
		Ingredients: in.Ingredients,
	}
	if err := s.recipes.CreateRecipe(ctx, w); err != nil {
		return nil, err
	}

	s.logger.Info("recipe created",
		slog.String("id", w.Recipe.ID),
		slog.String("author_id", authorID),
		slog.String("name", w.Recipe.Name),
	)
	return s.detail(ctx, authorID, w.Recipe)
}

// Update applies the present fields of upd to the recipe. Only its author
// may change it.
func (s *RecipeService) Update(ctx context.Context, actingUserID, recipeID string, upd RecipeUpdate) (*model.RecipeDetail, error) {
	existing, err := s.authorOnly(ctx, actingUserID, recipeID)
	if err != nil {
		return nil, err
	}

	in := upd.merge(existing)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if in.Tags != nil {
		if err := checkTags(in.Tags); err != nil {
			return nil, err
		}
	}
	if in.Ingredients != nil {
		if err := checkIngredients(in.Ingredients); err != nil {
			return nil, err
		}
	}

	w := &model.RecipeWrite{
		Recipe: model.Recipe{
			ID:          existing.ID,
			Name:        in.Name,
			Text:        in.Text,
			Image:       in.Image,
			CookingTime: in.CookingTime,
		},
		TagIDs:      in.Tags,
		Ingredients: in.Ingredients,
	}
	if err := s.recipes.UpdateRecipe(ctx, w); err != nil {
		return nil, err
	}

	s.logger.Info("recipe updated",
		slog.String("id", existing.ID),
		slog.Bool("tags_replaced", in.Tags != nil),
		slog.Bool("ingredients_replaced", in.Ingredients != nil),
	)
	return s.detail(ctx, actingUserID, w.Recipe)
}

// Delete removes the recipe and, by cascade, every favorite and cart row
// pointing at it. Only its author may delete it.
func (s *RecipeService) Delete(ctx context.Context, actingUserID, recipeID string) error {
	if _, err := s.authorOnly(ctx, actingUserID, recipeID); err != nil {
		return err
	}
	if err := s.recipes.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}
	s.logger.Info("recipe deleted", slog.String("id", recipeID))
	return nil
}

func (s *RecipeService) authorOnly(ctx context.Context, actingUserID, recipeID string) (*model.Recipe, error) {
	if actingUserID == "" {
		return nil, apperror.Unauthorized()
	}
	recipe, err := s.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actingUserID {
		return nil, apperror.Forbidden("only the author can change this recipe")
	}
	return recipe, nil
}

// Get returns the recipe as seen by viewerID ("" for anonymous).
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error) {
	recipe, err := s.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, viewerID, *recipe)
}

// List returns one page of recipes matching opts, newest first, and the
// total number of matches.
func (s *RecipeService) List(ctx context.Context, viewerID string, opts filter.Options, page repository.ListOptions) ([]model.RecipeDetail, int, error) {
	recipes, total, err := s.recipes.ListRecipes(ctx, filter.Build(opts, viewerID), page)
	if err != nil {
		s.logger.Error("failed to list recipes", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("listing recipes: %w", err)
	}

	details, err := s.details(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (s *RecipeService) detail(ctx context.Context, viewerID string, r model.Recipe) (*model.RecipeDetail, error) {
	details, err := s.details(ctx, viewerID, []model.Recipe{r})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// details assembles the read projection of recipes for viewerID. Tags and
// membership flags are loaded in one query per kind for the whole batch.
func (s *RecipeService) details(ctx context.Context, viewerID string, recipes []model.Recipe) ([]model.RecipeDetail, error) {
	out := make([]model.RecipeDetail, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	ids := make([]string, len(recipes))
	authors := make(map[string]*model.User)
	var authorIDs []string
	for i, r := range recipes {
		ids[i] = r.ID
		if _, ok := authors[r.AuthorID]; !ok {
			authors[r.AuthorID] = nil
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	tags, err := s.recipes.RecipeTags(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	favorited, err := s.memberships.MembershipSet(ctx, model.RelationFavorite, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading favorites: %w", err)
	}
	inCart, err := s.memberships.MembershipSet(ctx, model.RelationCart, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}
	subscribed, err := s.memberships.MembershipSet(ctx, model.RelationSubscription, viewerID, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("loading subscriptions: %w", err)
	}
	for _, id := range authorIDs {
		u, err := s.users.GetUserByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading author %s: %w", id, err)
		}
		authors[id] = u
	}

	for _, r := range recipes {
		lines, err := s.recipes.RecipeIngredients(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("loading ingredients of %s: %w", r.ID, err)
		}
		recipeTags := tags[r.ID]
		if recipeTags == nil {
			recipeTags = []model.Tag{}
		}

		out = append(out, model.RecipeDetail{
			ID:          r.ID,
			Tags:        recipeTags,
			Author:      model.UserProfile{User: *authors[r.AuthorID], IsSubscribed: subscribed[r.AuthorID]},
			Ingredients: lines,
			IsFavorited: favorited[r.ID],
			IsInCart:    inCart[r.ID],
			Name:        r.Name,
			Image:       r.Image,
			Text:        r.Text,
			CookingTime: r.CookingTime,
			PublishedAt: r.PublishedAt,
		})
	}
	return out, nil
}

func checkTags(tagIDs []string) error {
	if len(tagIDs) == 0 {
		return apperror.ValidationFailed("tags", "at least one tag is required")
	}
	seen := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if id == "" {
			return apperror.ValidationFailed("tags", "tag id is required")
		}
		if _, dup := seen[id]; dup {
			return apperror.ValidationFailed("tags", "tags can not repeat")
		}
		seen[id] = struct{}{}
	}
	return nil
}

func checkIngredients(lines []model.IngredientLine) error {
	if len(lines) == 0 {
		return apperror.ValidationFailed("ingredients", "at least one ingredient is required")
	}
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.IngredientID == "" {
			return apperror.ValidationFailed("ingredients", "ingredient id is required")
		}
		if l.Amount < 1 {
			return apperror.ValidationFailed("amount", "amount can not be less than 1")
		}
		if _, dup := seen[l.IngredientID]; dup {
			return apperror.ValidationFailed("ingredients", "ingredients can not repeat")
		}
		seen[l.IngredientID] = struct{}{}
	}
	return nil
}
