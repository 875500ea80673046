package api

import (
	"context"
	"fmt"

	"github.com/dmorales/projectboard/internal/model"
)

// NotificationService wraps the notification history endpoints. Live
// notifications arrive over the realtime channel; these endpoints
// populate history and adjust read state.
type NotificationService struct {
	client *Client
}

// NewNotificationService creates a NotificationService over the
// given client.
func NewNotificationService(c *Client) *NotificationService {
	return &NotificationService{client: c}
}

// List fetches the notification history, newest first.
func (s *NotificationService) List(ctx context.Context) ([]model.Notification, error) {
	var page pagedList[model.Notification]
	if err := s.client.Get(ctx, "/api/projects/notifications/", &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// UnreadCount fetches the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	var count model.UnreadCount
	if err := s.client.Get(ctx, "/api/projects/notifications/unread-count/", &count); err != nil {
		return 0, err
	}
	return count.Count, nil
}

// MarkRead marks a single notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	return s.client.Post(ctx, fmt.Sprintf("/api/projects/notifications/%d/mark-read/", id), nil, nil)
}

// MarkAllRead marks every notification as read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.client.Post(ctx, "/api/projects/notifications/mark-all-read/", nil, nil)
}
