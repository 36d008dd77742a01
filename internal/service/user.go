package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/validation"
)

// UserInput is what the operator CLI needs to create an account.
type UserInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,slug"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// UserService serves user profiles relative to the acting user.
type UserService struct {
	users       repository.UserRepository
	memberships repository.MembershipRepository
	logger      *slog.Logger
}

func NewUserService(users repository.UserRepository, memberships repository.MembershipRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, memberships: memberships, logger: logger}
}

// Create stores a new user. Sign-up is not exposed over HTTP; this is the
// operator path.
func (s *UserService) Create(ctx context.Context, in UserInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	u := &model.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user created", slog.String("id", u.ID), slog.String("username", u.Username))
	return u, nil
}

// Get returns the user by id with is_subscribed relative to viewerID.
func (s *UserService) Get(ctx context.Context, viewerID, id string) (*model.UserProfile, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles(ctx, viewerID, []model.User{*u})
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

// Me returns the acting user's own profile.
func (s *UserService) Me(ctx context.Context, viewerID string) (*model.UserProfile, error) {
	if viewerID == "" {
		return nil, apperror.Unauthorized()
	}
	return s.Get(ctx, viewerID, viewerID)
}

func (s *UserService) List(ctx context.Context, viewerID string, opts repository.ListOptions) ([]model.UserProfile, int, error) {
	users, total, err := s.users.ListUsers(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	profiles, err := s.profiles(ctx, viewerID, users)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (s *UserService) profiles(ctx context.Context, viewerID string, users []model.User) ([]model.UserProfile, error) {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := s.memberships.MembershipSet(ctx, model.RelationSubscription, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading subscriptions: %w", err)
	}

	out := make([]model.UserProfile, len(users))
	for i, u := range users {
		out[i] = model.UserProfile{User: u, IsSubscribed: subscribed[u.ID]}
	}
	return out, nil
}
