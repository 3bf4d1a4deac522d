package services

import (
	"context"

	"github.com/google/uuid"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/storage"
	"habitsAPI/internal/types/activity"
	"habitsAPI/internal/types/friendship"
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/types/user"
	"habitsAPI/internal/validation"
)

const activityFeedLimit = 20

type SocialService struct {
	store     storage.Store
	habits    *HabitService
	validator *validation.Validator
}

func NewSocialService(store storage.Store, habits *HabitService) *SocialService {
	return &SocialService{store: store, habits: habits, validator: validation.New()}
}

// Follow creates an accepted friendship between the caller and the recipient.
// The boolean reports whether a new friendship was created.
func (s *SocialService) Follow(ctx context.Context, callerID uuid.UUID, req *friendship.FollowRequest) (*friendship.FollowResponse, bool, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, false, err
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		return nil, false, apperrors.Validation("invalid recipient id")
	}
	if recipientID == callerID {
		return nil, false, apperrors.Validation("cannot follow yourself")
	}
	if _, err := s.store.GetUserByID(ctx, recipientID); err != nil {
		return nil, false, err
	}

	var (
		resp    *friendship.FollowResponse
		created bool
	)
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		existing, err := tx.GetFriendship(ctx, callerID, recipientID)
		switch {
		case err == nil && existing.Status == friendship.FriendshipAccepted:
			resp = &friendship.FollowResponse{
				Message: "already friends",
				Status:  friendship.FollowStatusAlreadyFriends,
			}
			return nil
		case err == nil && existing.Status == friendship.FriendshipBlocked:
			return apperrors.Forbidden("cannot follow this user")
		case err == nil:
			// a stale pending or declined row is replaced by the accepted one
			if _, err := tx.DeleteFriendship(ctx, callerID, recipientID); err != nil {
				return err
			}
		case !apperrors.Is(err, apperrors.ErrNotFound):
			return err
		}

		f := &friendship.Friendship{
			RequesterID: callerID,
			RecipientID: recipientID,
			Status:      friendship.FriendshipAccepted,
		}
		if err := tx.CreateFriendship(ctx, f); err != nil {
			return err
		}
		resp = &friendship.FollowResponse{
			Message:    "now following",
			Status:     friendship.FollowStatusNewFriendship,
			Friendship: f,
		}
		created = true
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrAlreadyExists) {
			// lost a race with the other side following back
			return &friendship.FollowResponse{
				Message: "already friends",
				Status:  friendship.FollowStatusAlreadyFriends,
			}, false, nil
		}
		return nil, false, err
	}

	if created {
		logger.Info("friendship created", "requester_id", callerID, "recipient_id", recipientID)
	}
	return resp, created, nil
}

func (s *SocialService) Unfollow(ctx context.Context, callerID uuid.UUID, req *friendship.UnfollowRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	otherID, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperrors.Validation("invalid user id")
	}

	removed, err := s.store.DeleteFriendship(ctx, callerID, otherID)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NotFound("friendship not found")
	}

	logger.Info("friendship removed", "user_id", callerID, "other_id", otherID)
	return nil
}

func (s *SocialService) ListFriends(ctx context.Context, callerID uuid.UUID) ([]*user.Summary, error) {
	friends, err := s.store.ListFriends(ctx, callerID)
	if err != nil {
		return nil, err
	}

	out := make([]*user.Summary, 0, len(friends))
	for _, f := range friends {
		out = append(out, f.Summary())
	}
	return out, nil
}

// ActivityFeed returns the most recent completions logged by the caller's friends.
func (s *SocialService) ActivityFeed(ctx context.Context, callerID uuid.UUID) (*activity.FeedResponse, error) {
	friends, err := s.store.ListFriends(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(friends) == 0 {
		return &activity.FeedResponse{Activities: []*activity.Activity{}}, nil
	}

	ids := make([]uuid.UUID, len(friends))
	for i, f := range friends {
		ids[i] = f.ID
	}

	activities, err := s.store.ListRecentCompletions(ctx, ids, activityFeedLimit)
	if err != nil {
		return nil, err
	}
	return &activity.FeedResponse{Activities: activities}, nil
}

func (s *SocialService) Profile(ctx context.Context, callerID, targetID uuid.UUID) (*friendship.ProfileResponse, error) {
	target, err := s.store.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	owned, err := s.store.ListHabitsByOwner(ctx, targetID)
	if err != nil {
		return nil, err
	}
	refreshed, err := s.habits.RefreshHabits(ctx, owned)
	if err != nil {
		return nil, err
	}
	habits := make([]*habit.Habit, 0, len(refreshed))
	for _, h := range refreshed {
		hc := h.Habit
		habits = append(habits, &hc)
	}

	following := false
	if callerID != targetID {
		f, err := s.store.GetFriendship(ctx, callerID, targetID)
		switch {
		case err == nil:
			following = f.Status == friendship.FriendshipAccepted
		case !apperrors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
	}

	return &friendship.ProfileResponse{
		User:        target.Summary(),
		Habits:      habits,
		IsFollowing: following,
	}, nil
}
