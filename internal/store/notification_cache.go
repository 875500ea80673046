package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmorales/projectboard/internal/model"
)

// notificationRow is the database shape of a notification; the
// project and task references are stored as JSON text.
type notificationRow struct {
	ID          int64     `db:"id"`
	Type        string    `db:"type"`
	TypeDisplay string    `db:"type_display"`
	Title       string    `db:"title"`
	Message     string    `db:"message"`
	Read        bool      `db:"is_read"`
	ProjectRef  string    `db:"project_ref"`
	TaskRef     string    `db:"task_ref"`
	CreatedAt   time.Time `db:"created_at"`
}

// toModel converts a row back into the wire model.
func (r notificationRow) toModel() model.Notification {
	n := model.Notification{
		ID:          r.ID,
		Type:        r.Type,
		TypeDisplay: r.TypeDisplay,
		Title:       r.Title,
		Message:     r.Message,
		Read:        r.Read,
		CreatedAt:   r.CreatedAt,
	}
	if r.ProjectRef != "" {
		var ref model.NotificationRef
		if json.Unmarshal([]byte(r.ProjectRef), &ref) == nil {
			n.Project = &ref
		}
	}
	if r.TaskRef != "" {
		var ref model.NotificationRef
		if json.Unmarshal([]byte(r.TaskRef), &ref) == nil {
			n.Task = &ref
		}
	}
	return n
}

// refJSON serializes an optional reference for storage.
func refJSON(ref *model.NotificationRef) (string, error) {
	if ref == nil {
		return "", nil
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UpsertNotifications inserts or replaces a batch of notifications.
// Read state never reverts: a stored read notification stays read
// even when the incoming copy is unread.
func (s *SQLiteCache) UpsertNotifications(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO notifications (
			id, type, type_display, title, message,
			is_read, project_ref, task_ref, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			type_display = excluded.type_display,
			title = excluded.title,
			message = excluded.message,
			is_read = MAX(notifications.is_read, excluded.is_read),
			project_ref = excluded.project_ref,
			task_ref = excluded.task_ref,
			created_at = excluded.created_at`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range notifications {
		projectRef, err := refJSON(n.Project)
		if err != nil {
			return fmt.Errorf("marshaling project ref for notification %d: %w", n.ID, err)
		}
		taskRef, err := refJSON(n.Task)
		if err != nil {
			return fmt.Errorf("marshaling task ref for notification %d: %w", n.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			n.ID, n.Type, n.TypeDisplay, n.Title, n.Message,
			boolToInt(n.Read), projectRef, taskRef, n.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting notification %d: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetNotifications returns cached notifications, newest first,
// limited to limit entries when limit is positive.
func (s *SQLiteCache) GetNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	query := "SELECT * FROM notifications ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		notifications = append(notifications, r.toModel())
	}
	return notifications, nil
}

// MarkNotificationRead marks one cached notification as read.
func (s *SQLiteCache) MarkNotificationRead(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every cached notification as read.
func (s *SQLiteCache) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE is_read = 0"); err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}
