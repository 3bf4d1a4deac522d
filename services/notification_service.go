package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"habitsAPI/internal/logger"
	"habitsAPI/internal/storage"
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/types/notification"
	"habitsAPI/internal/validation"
)

const (
	defaultNotificationPageSize = 20
	maxNotificationPageSize     = 100
)

type NotificationService struct {
	store      storage.Store
	dispatcher *NotificationDispatcher
	validator  *validation.Validator
}

func NewNotificationService(store storage.Store, dispatcher *NotificationDispatcher) *NotificationService {
	return &NotificationService{
		store:      store,
		dispatcher: dispatcher,
		validator:  validation.New(),
	}
}

// NotifyStreakMilestone stores an in-app notification for the habit's owner and
// queues a push to their devices.
func (s *NotificationService) NotifyStreakMilestone(ctx context.Context, h *habit.Habit, milestone int) error {
	n := &notification.Notification{
		UserID:  h.UserID,
		Type:    notification.NotificationStreakMilestone,
		Title:   fmt.Sprintf("%d day streak!", milestone),
		Message: fmt.Sprintf("You've completed %q %d days in a row. Keep it going!", h.Name, milestone),
		Data: map[string]any{
			"habit_id":  h.ID.String(),
			"milestone": milestone,
		},
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return err
	}

	if s.dispatcher == nil {
		return nil
	}

	tokens, err := s.store.ListDeviceTokens(ctx, h.UserID)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	s.dispatcher.Dispatch(n, tokens)
	return nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int) (*notification.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultNotificationPageSize
	}
	if pageSize > maxNotificationPageSize {
		pageSize = maxNotificationPageSize
	}

	notifications, total, err := s.store.ListNotifications(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	unread, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &notification.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
		TotalCount:    total,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.store.MarkNotificationRead(ctx, userID, notificationID)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) (*notification.DeviceToken, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	t := &notification.DeviceToken{
		UserID:   userID,
		Token:    req.Token,
		Platform: req.Platform,
	}
	if err := s.store.UpsertDeviceToken(ctx, t); err != nil {
		return nil, err
	}

	logger.Info("device registered", "user_id", userID, "platform", req.Platform)
	return t, nil
}
