package store

import (
	"context"

	"github.com/dmorales/projectboard/internal/model"
)

// Cache is the local persistence interface for server-state
// snapshots. The server remains the source of truth; the cache lets
// the UI render the last-known projects, tasks, and notification
// history while the API is unreachable.
type Cache interface {
	// === Projects ===

	UpsertProjects(ctx context.Context, projects []model.Project) error
	GetProjects(ctx context.Context) ([]model.Project, error)
	GetProjectByID(ctx context.Context, id int64) (*model.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	// === Tasks ===

	UpsertTasks(ctx context.Context, tasks []model.Task) error
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	// === Notifications ===

	UpsertNotifications(ctx context.Context, notifications []model.Notification) error
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error

	Close() error
}

// TaskFilter controls filtering and pagination for cached task
// queries.
type TaskFilter struct {
	ProjectID *int64
	Status    *string
	Priority  *string
	Query     *string
	Limit     int
	Offset    int
}
