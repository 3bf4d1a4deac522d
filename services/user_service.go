package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/storage"
	"habitsAPI/internal/types/user"
	"habitsAPI/internal/validation"
)

const (
	minSearchQueryLength = 2
	searchResultLimit    = 10
)

type UserService struct {
	store     storage.Store
	validator *validation.Validator
}

func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store, validator: validation.New()}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	u := &user.User{
		ClerkID:       req.ClerkID,
		Email:         req.Email,
		Username:      req.Username,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		ImageURL:      req.ImageURL,
		EmailVerified: req.EmailVerified,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	logger.Info("user created", "user_id", u.ID, "clerk_id", u.ClerkID)
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return s.store.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.store.UpdateUserByClerkID(ctx, clerkID, req)
}

// DeleteUserByClerkID removes the user together with their habits, ledger and friendships.
func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	if err := s.store.DeleteUserByClerkID(ctx, clerkID); err != nil {
		return err
	}
	logger.Info("user deleted", "clerk_id", clerkID)
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	return s.store.SetEmailVerified(ctx, clerkID, verified)
}

// SearchUsers matches username or email, case-insensitively, excluding the caller.
func (s *UserService) SearchUsers(ctx context.Context, callerID uuid.UUID, query string) ([]*user.Summary, error) {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < minSearchQueryLength {
		return nil, apperrors.Validationf("search query must be at least %d characters", minSearchQueryLength)
	}

	users, err := s.store.SearchUsers(ctx, callerID, q, searchResultLimit)
	if err != nil {
		return nil, err
	}

	out := make([]*user.Summary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}
