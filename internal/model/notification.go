package model

import "time"

// Notification kinds pushed by the server.
const (
	NotifyTaskAssigned    = "task_assigned"
	NotifyTaskCompleted   = "task_completed"
	NotifyProjectAssigned = "project_assigned"
	NotifyCommentAdded    = "comment_added"
)

// NotificationRef is a lightweight reference to the project or task a
// notification is about.
type NotificationRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
}

// Notification is an event surfaced to the user about activity on
// their projects and tasks. Identity is the ID; the read flag only
// ever transitions from unread to read.
type Notification struct {
	// ID is the server-assigned unique identifier.
	ID int64 `json:"id" db:"id"`

	// Type identifies what happened (use the Notify* constants).
	Type        string `json:"type" db:"type"`
	TypeDisplay string `json:"type_display" db:"type_display"`

	// Title is the short notification headline.
	Title string `json:"title" db:"title"`

	// Message is the full human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"is_read" db:"is_read"`

	// Project and Task optionally link back to the related objects.
	Project *NotificationRef `json:"project,omitempty" db:"-"`
	Task    *NotificationRef `json:"task,omitempty" db:"-"`

	// CreatedAt is when this notification was generated server-side.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UnreadCount is the response of the unread-count endpoint.
type UnreadCount struct {
	Count int `json:"count"`
}
