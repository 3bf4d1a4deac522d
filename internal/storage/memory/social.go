package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/types/friendship"
	"habitsAPI/internal/types/notification"
	"habitsAPI/internal/types/user"
)

func (s *Store) GetFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error) {
	defer s.lock()()

	f := s.friendshipLocked(a, b)
	if f == nil {
		return nil, notFound("friendship")
	}
	out := *f
	return &out, nil
}

func (s *Store) friendshipLocked(a, b uuid.UUID) *friendship.Friendship {
	for _, f := range s.data.friendships {
		if (f.RequesterID == a && f.RecipientID == b) || (f.RequesterID == b && f.RecipientID == a) {
			return f
		}
	}
	return nil
}

func (s *Store) CreateFriendship(ctx context.Context, f *friendship.Friendship) error {
	defer s.lock()()

	if s.friendshipLocked(f.RequesterID, f.RecipientID) != nil {
		return apperrors.AlreadyExists("friendship already exists")
	}
	if _, ok := s.data.users[f.RequesterID]; !ok {
		return notFound("user")
	}
	if _, ok := s.data.users[f.RecipientID]; !ok {
		return notFound("user")
	}

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := s.timestamp()
	f.CreatedAt, f.UpdatedAt = now, now

	stored := *f
	s.data.friendships[f.ID] = &stored
	return nil
}

func (s *Store) DeleteFriendship(ctx context.Context, a, b uuid.UUID) (bool, error) {
	defer s.lock()()

	f := s.friendshipLocked(a, b)
	if f == nil {
		return false, nil
	}
	delete(s.data.friendships, f.ID)
	return true, nil
}

func (s *Store) ListFriends(ctx context.Context, userID uuid.UUID) ([]*user.User, error) {
	defer s.lock()()

	out := make([]*user.User, 0)
	for _, f := range s.data.friendships {
		if f.Status != friendship.FriendshipAccepted {
			continue
		}
		if f.RequesterID != userID && f.RecipientID != userID {
			continue
		}
		if u, ok := s.data.users[f.Other(userID)]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	defer s.lock()()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = s.timestamp()

	stored := *n
	s.data.notifications[n.ID] = &stored
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*notification.Notification, int, error) {
	defer s.lock()()

	all := make([]*notification.Notification, 0)
	for _, n := range s.data.notifications {
		if n.UserID == userID {
			c := *n
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset >= total {
		return []*notification.Notification{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	defer s.lock()()

	count := 0
	for _, n := range s.data.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	defer s.lock()()

	n, ok := s.data.notifications[notificationID]
	if !ok || n.UserID != userID {
		return notFound("notification")
	}
	n.IsRead = true
	return nil
}

func (s *Store) UpsertDeviceToken(ctx context.Context, t *notification.DeviceToken) error {
	defer s.lock()()

	now := s.timestamp()
	if existing, ok := s.data.devices[t.Token]; ok {
		existing.UserID = t.UserID
		existing.Platform = t.Platform
		existing.UpdatedAt = now
		*t = *existing
		return nil
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	stored := *t
	s.data.devices[t.Token] = &stored
	return nil
}

func (s *Store) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	defer s.lock()()

	out := make([]notification.DeviceToken, 0)
	for _, t := range s.data.devices {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}
