package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/types/friendship"
	"habitsAPI/internal/types/notification"
	"habitsAPI/internal/types/user"
)

func (s *Store) GetFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error) {
	f := &friendship.Friendship{}
	err := s.db.QueryRow(ctx, `
	SELECT id, requester_id, recipient_id, status, created_at, updated_at
	FROM friendships
	WHERE (requester_id = $1 AND recipient_id = $2)
	   OR (requester_id = $2 AND recipient_id = $1)
	`, a, b).Scan(&f.ID, &f.RequesterID, &f.RecipientID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "friendship", "get friendship")
	}
	return f, nil
}

func (s *Store) CreateFriendship(ctx context.Context, f *friendship.Friendship) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
	INSERT INTO friendships (id, requester_id, recipient_id, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	RETURNING created_at, updated_at
	`, f.ID, f.RequesterID, f.RecipientID, f.Status).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return mapErr(err, "friendship", "create friendship")
	}
	return nil
}

func (s *Store) DeleteFriendship(ctx context.Context, a, b uuid.UUID) (bool, error) {
	result, err := s.db.Exec(ctx, `
	DELETE FROM friendships
	WHERE (requester_id = $1 AND recipient_id = $2)
	   OR (requester_id = $2 AND recipient_id = $1)
	`, a, b)
	if err != nil {
		return false, fmt.Errorf("failed to remove friendship: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *Store) ListFriends(ctx context.Context, userID uuid.UUID) ([]*user.User, error) {
	rows, err := s.db.Query(ctx, `
	SELECT DISTINCT
		u.id,
		u.clerk_id,
		u.email,
		u.username,
		u.first_name,
		u.last_name,
		u.image_url,
		u.email_verified,
		u.created_at,
		u.updated_at
	FROM users u
	INNER JOIN friendships f ON (
		(f.requester_id = u.id AND f.recipient_id = $1)
		OR
		(f.recipient_id = u.id AND f.requester_id = $1)
	)
	WHERE f.status = 'accepted'
	  AND u.id != $1
	ORDER BY u.username, u.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return collectUsers(rows)
}

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
	INSERT INTO notifications (id, user_id, type, title, message, is_read, data, created_at)
	VALUES ($1, $2, $3, $4, $5, FALSE, $6, NOW())
	RETURNING created_at
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Data).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*notification.Notification, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, type, title, message, is_read, data, created_at
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC, id
	LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		n := &notification.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.Data, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}
	return notifications, total, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
	SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `
	UPDATE notifications SET is_read = TRUE
	WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("notification not found")
	}
	return nil
}

func (s *Store) UpsertDeviceToken(ctx context.Context, t *notification.DeviceToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
	INSERT INTO device_tokens (id, user_id, token, platform, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	ON CONFLICT (token) DO UPDATE
	SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = NOW()
	RETURNING id, created_at, updated_at
	`, t.ID, t.UserID, t.Token, t.Platform).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

func (s *Store) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, token, platform, created_at, updated_at
	FROM device_tokens
	WHERE user_id = $1
	ORDER BY token
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	tokens := []notification.DeviceToken{}
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tokens, nil
}
