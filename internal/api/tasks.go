package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmorales/projectboard/internal/model"
)

// TaskService wraps the task endpoints.
type TaskService struct {
	client *Client
}

// NewTaskService creates a TaskService over the given client.
func NewTaskService(c *Client) *TaskService {
	return &TaskService{client: c}
}

// List fetches tasks, scoped to a project when projectID is non-zero.
func (s *TaskService) List(ctx context.Context, projectID int64) ([]model.Task, error) {
	path := "/api/projects/tasks/"
	if projectID != 0 {
		path = fmt.Sprintf("/api/projects/%d/tasks/", projectID)
	}

	var page pagedList[model.Task]
	if err := s.client.Get(ctx, path, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Get fetches a single task by ID.
func (s *TaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	if err := s.client.Get(ctx, fmt.Sprintf("/api/projects/tasks/%d/", id), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create creates a task, attached to a project when projectID is
// non-zero.
func (s *TaskService) Create(ctx context.Context, projectID int64, fields map[string]interface{}) (*model.Task, error) {
	path := "/api/projects/tasks/"
	if projectID != 0 {
		path = fmt.Sprintf("/api/projects/%d/tasks/", projectID)
	}

	var task model.Task
	if err := s.client.Post(ctx, path, fields, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies a partial update to a task.
func (s *TaskService) Update(ctx context.Context, id int64, fields map[string]interface{}) (*model.Task, error) {
	var task model.Task
	if err := s.client.Patch(ctx, fmt.Sprintf("/api/projects/tasks/%d/", id), fields, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus transitions a task to a new status.
func (s *TaskService) UpdateStatus(ctx context.Context, id int64, status string) (*model.Task, error) {
	var task model.Task
	payload := map[string]string{"status": status}
	path := fmt.Sprintf("/api/projects/tasks/%d/status/", id)
	if err := s.client.Patch(ctx, path, payload, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/api/projects/tasks/%d/", id))
}

// Mine fetches the tasks assigned to the current user, optionally
// filtered by status.
func (s *TaskService) Mine(ctx context.Context, status string) (*model.MyTasks, error) {
	path := "/api/projects/my-tasks/"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var result model.MyTasks
	if err := s.client.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
