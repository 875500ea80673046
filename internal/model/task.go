package model

import "time"

// Task is a work item belonging to a project.
type Task struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// Status is one of the Status* constants.
	Status        string `json:"status" db:"status"`
	StatusDisplay string `json:"status_display" db:"status_display"`

	// Priority is one of the Priority* constants.
	Priority        string `json:"priority" db:"priority"`
	PriorityDisplay string `json:"priority_display" db:"priority_display"`

	DueDate     string     `json:"due_date,omitempty" db:"due_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// Project is the ID of the owning project.
	Project     int64  `json:"project" db:"project"`
	ProjectName string `json:"project_name" db:"project_name"`

	// AssignedTo is the account ID of the assignee, zero when unassigned.
	AssignedTo     int64  `json:"assigned_to,omitempty" db:"assigned_to"`
	AssignedToName string `json:"assigned_to_name,omitempty" db:"assigned_to_name"`

	CreatedBy     int64  `json:"created_by" db:"created_by"`
	CreatedByName string `json:"created_by_name" db:"created_by_name"`

	// Overdue is server-computed from the due date.
	Overdue bool `json:"is_overdue" db:"is_overdue"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// FetchedAt is when this snapshot was cached locally. Not part of
	// the wire format.
	FetchedAt time.Time `json:"-" db:"fetched_at"`
}

// MyTasks is the response of the assigned-tasks endpoint.
type MyTasks struct {
	Tasks        []Task `json:"tasks"`
	Count        int    `json:"count"`
	OverdueCount int    `json:"overdue_count"`
}
