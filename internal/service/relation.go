package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// ToggleRequest asks for one membership row to be present or absent.
//
// For RelationSubscription TargetID is the author's user id, otherwise a
// recipe id. RecipesLimit caps the recipes embedded in the author profile
// returned by a successful subscribe; zero or less means all of them.
type ToggleRequest struct {
	Kind         model.RelationKind
	UserID       string
	TargetID     string
	State        model.DesiredState
	RecipesLimit int
}

// ToggleResult is the outcome of a successful toggle. An add fills exactly
// one of Recipe (favorite, cart) and Author (subscription); a remove leaves
// both nil.
type ToggleResult struct {
	Recipe *model.RecipeShort
	Author *model.AuthorProfile
}

// RelationService adds and removes favorite, cart and subscription rows.
//
// An add of a pair that already exists is an error, not a no-op, and so is
// a remove of a pair that does not. Duplicate detection belongs to the
// store's uniqueness constraint; the service never reads before it writes
// to decide whether a row exists.
type RelationService struct {
	memberships repository.MembershipRepository
	recipes     repository.RecipeRepository
	users       repository.UserRepository
	logger      *slog.Logger
}

func NewRelationService(
	memberships repository.MembershipRepository,
	recipes repository.RecipeRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *RelationService {
	return &RelationService{
		memberships: memberships,
		recipes:     recipes,
		users:       users,
		logger:      logger,
	}
}

// Toggle applies req and returns the projection of the target on add.
func (s *RelationService) Toggle(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("toggle: unknown relation kind %q", req.Kind)
	}
	if req.UserID == "" {
		return nil, apperror.Unauthorized()
	}

	// Self-subscription is rejected before any storage call.
	if req.Kind == model.RelationSubscription && req.State == model.Present && req.UserID == req.TargetID {
		return nil, apperror.SelfReference("you can not subscribe to yourself")
	}

	if req.State == model.Absent {
		return nil, s.remove(ctx, req)
	}
	return s.add(ctx, req)
}

func (s *RelationService) add(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	switch req.Kind {
	case model.RelationSubscription:
		author, err := s.users.GetUserByID(ctx, req.TargetID)
		if err != nil {
			return nil, err
		}
		if err := s.memberships.AddMembership(ctx, req.Kind, req.UserID, author.ID); err != nil {
			return nil, err
		}
		s.logAdded(req)

		profile, err := authorProfile(ctx, s.recipes, *author, true, req.RecipesLimit)
		if err != nil {
			return nil, fmt.Errorf("loading author profile: %w", err)
		}
		return &ToggleResult{Author: profile}, nil

	default:
		recipe, err := s.recipes.GetRecipe(ctx, req.TargetID)
		if err != nil {
			return nil, err
		}
		if err := s.memberships.AddMembership(ctx, req.Kind, req.UserID, recipe.ID); err != nil {
			return nil, err
		}
		s.logAdded(req)

		short := recipe.Short()
		return &ToggleResult{Recipe: &short}, nil
	}
}

func (s *RelationService) remove(ctx context.Context, req ToggleRequest) error {
	// A missing target is reported as such, not as a missing membership.
	var err error
	if req.Kind == model.RelationSubscription {
		_, err = s.users.GetUserByID(ctx, req.TargetID)
	} else {
		_, err = s.recipes.GetRecipe(ctx, req.TargetID)
	}
	if err != nil {
		return err
	}

	removed, err := s.memberships.RemoveMembership(ctx, req.Kind, req.UserID, req.TargetID)
	if err != nil {
		s.logger.Error("failed to remove membership",
			slog.String("kind", req.Kind.String()),
			slog.String("user_id", req.UserID),
			slog.String("target_id", req.TargetID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("removing %s: %w", req.Kind, err)
	}
	if !removed {
		return apperror.NotInRelation(notInRelationMessage(req.Kind))
	}

	s.logger.Info("membership removed",
		slog.String("kind", req.Kind.String()),
		slog.String("user_id", req.UserID),
		slog.String("target_id", req.TargetID),
	)
	return nil
}

func (s *RelationService) logAdded(req ToggleRequest) {
	s.logger.Info("membership added",
		slog.String("kind", req.Kind.String()),
		slog.String("user_id", req.UserID),
		slog.String("target_id", req.TargetID),
	)
}

// ListSubscriptions returns the profiles of the authors userID follows, one
// page at a time, each with up to recipesLimit of their newest recipes.
func (s *RelationService) ListSubscriptions(ctx context.Context, userID string, opts repository.ListOptions, recipesLimit int) ([]model.AuthorProfile, int, error) {
	if userID == "" {
		return nil, 0, apperror.Unauthorized()
	}

	authors, total, err := s.memberships.ListSubscribedAuthors(ctx, userID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing subscriptions: %w", err)
	}

	profiles := make([]model.AuthorProfile, 0, len(authors))
	for _, a := range authors {
		p, err := authorProfile(ctx, s.recipes, a, true, recipesLimit)
		if err != nil {
			return nil, 0, fmt.Errorf("loading author profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, total, nil
}

func authorProfile(ctx context.Context, recipes repository.RecipeRepository, u model.User, subscribed bool, limit int) (*model.AuthorProfile, error) {
	if limit <= 0 {
		limit = -1
	}
	shorts, count, err := recipes.RecipesByAuthor(ctx, u.ID, limit)
	if err != nil {
		return nil, err
	}
	return &model.AuthorProfile{
		UserProfile:  model.UserProfile{User: u, IsSubscribed: subscribed},
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}

func notInRelationMessage(kind model.RelationKind) string {
	switch kind {
	case model.RelationFavorite:
		return "recipe is not in favorites"
	case model.RelationCart:
		return "recipe is not in the shopping cart"
	default:
		return "you are not subscribed to this author"
	}
}
