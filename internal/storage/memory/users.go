package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/types/user"
)

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	defer s.lock()()

	for _, existing := range s.data.users {
		if existing.ClerkID == u.ClerkID {
			return apperrors.AlreadyExists("user already exists")
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.AlreadyExists("email already in use")
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return apperrors.AlreadyExists("username already taken")
		}
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := s.timestamp()
	u.CreatedAt, u.UpdatedAt = now, now

	stored := *u
	s.data.users[u.ID] = &stored
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	defer s.lock()()

	u, ok := s.data.users[id]
	if !ok {
		return nil, notFound("user")
	}
	out := *u
	return &out, nil
}

func (s *Store) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	defer s.lock()()

	u := s.userByClerkID(clerkID)
	if u == nil {
		return nil, notFound("user")
	}
	out := *u
	return &out, nil
}

func (s *Store) userByClerkID(clerkID string) *user.User {
	for _, u := range s.data.users {
		if u.ClerkID == clerkID {
			return u
		}
	}
	return nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	defer s.lock()()

	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.data.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*user.User, error) {
	defer s.lock()()

	out := make([]*user.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		c := *u
		out = append(out, &c)
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) UpdateUserByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	defer s.lock()()

	u := s.userByClerkID(clerkID)
	if u == nil {
		return nil, notFound("user")
	}

	if req.Username != "" && !strings.EqualFold(req.Username, u.Username) {
		for _, other := range s.data.users {
			if other.ID != u.ID && strings.EqualFold(other.Username, req.Username) {
				return nil, apperrors.AlreadyExists("username already taken")
			}
		}
		u.Username = req.Username
	}
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if req.ImageURL != "" {
		u.ImageURL = req.ImageURL
	}
	u.UpdatedAt = s.timestamp()

	out := *u
	return &out, nil
}

func (s *Store) SetEmailVerified(ctx context.Context, clerkID string, verified bool) error {
	defer s.lock()()

	u := s.userByClerkID(clerkID)
	if u == nil {
		return notFound("user")
	}
	u.EmailVerified = verified
	u.UpdatedAt = s.timestamp()
	return nil
}

func (s *Store) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	defer s.lock()()

	u := s.userByClerkID(clerkID)
	if u == nil {
		return notFound("user")
	}

	for id, h := range s.data.habits {
		if h.UserID == u.ID {
			s.deleteCompletionsLocked(id)
			delete(s.data.habits, id)
		}
	}
	for id, c := range s.data.completions {
		if c.UserID == u.ID {
			delete(s.data.completions, id)
		}
	}
	for id, f := range s.data.friendships {
		if f.RequesterID == u.ID || f.RecipientID == u.ID {
			delete(s.data.friendships, id)
		}
	}
	for id, n := range s.data.notifications {
		if n.UserID == u.ID {
			delete(s.data.notifications, id)
		}
	}
	for token, t := range s.data.devices {
		if t.UserID == u.ID {
			delete(s.data.devices, token)
		}
	}
	delete(s.data.users, u.ID)
	return nil
}

func (s *Store) SearchUsers(ctx context.Context, excludeID uuid.UUID, query string, limit int) ([]*user.User, error) {
	defer s.lock()()

	q := strings.ToLower(query)
	out := make([]*user.User, 0)
	for _, u := range s.data.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			c := *u
			out = append(out, &c)
		}
	}
	sortUsers(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortUsers(users []*user.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Username != users[j].Username {
			return users[i].Username < users[j].Username
		}
		return users[i].ID.String() < users[j].ID.String()
	})
}
