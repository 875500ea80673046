package model

import "time"

// Normalized status values shared by projects and tasks.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Priority levels shared by projects and tasks.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Project is a project as reported by the API.
type Project struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`

	// Status is one of the Status* constants.
	Status        string `json:"status" db:"status"`
	StatusDisplay string `json:"status_display" db:"status_display"`

	// Priority is one of the Priority* constants.
	Priority        string `json:"priority" db:"priority"`
	PriorityDisplay string `json:"priority_display" db:"priority_display"`

	StartDate string `json:"start_date" db:"start_date"`
	EndDate   string `json:"end_date,omitempty" db:"end_date"`

	// Owner is the account ID of the project owner.
	Owner     int64  `json:"owner" db:"owner"`
	OwnerName string `json:"owner_name" db:"owner_name"`

	// ProgressPercentage is the server-computed completion ratio (0-100).
	ProgressPercentage int `json:"progress_percentage" db:"progress_percentage"`

	MembersCount int `json:"members_count" db:"members_count"`
	TasksCount   int `json:"tasks_count" db:"tasks_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// CanUserEdit and CanUserDelete are per-request permission hints.
	CanUserEdit   bool `json:"can_user_edit,omitempty" db:"can_user_edit"`
	CanUserDelete bool `json:"can_user_delete,omitempty" db:"can_user_delete"`

	// FetchedAt is when this snapshot was cached locally. Not part of
	// the wire format.
	FetchedAt time.Time `json:"-" db:"fetched_at"`
}

// MemberRole is a user's role within a single project.
type MemberRole string

const (
	MemberManager   MemberRole = "manager"
	MemberDeveloper MemberRole = "developer"
	MemberDesigner  MemberRole = "designer"
	MemberTester    MemberRole = "tester"
	MemberObserver  MemberRole = "observer"
)

// ProjectMember is a membership record within a project.
type ProjectMember struct {
	ID          int64      `json:"id"`
	User        int64      `json:"user"`
	UserName    string     `json:"user_name"`
	UserEmail   string     `json:"user_email"`
	Role        MemberRole `json:"role"`
	RoleDisplay string     `json:"role_display"`
	JoinedAt    time.Time  `json:"joined_at"`
}

// ProjectStats is the per-project statistics payload.
type ProjectStats struct {
	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	PendingTasks    int `json:"pending_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	OverdueTasks    int `json:"overdue_tasks"`
}
