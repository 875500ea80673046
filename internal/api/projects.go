package api

import (
	"context"
	"fmt"

	"github.com/dmorales/projectboard/internal/model"
)

// ProjectService wraps the project and membership endpoints.
type ProjectService struct {
	client *Client
}

// NewProjectService creates a ProjectService over the given client.
func NewProjectService(c *Client) *ProjectService {
	return &ProjectService{client: c}
}

// List fetches all projects visible to the user.
func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	var page pagedList[model.Project]
	if err := s.client.Get(ctx, "/api/projects/", &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Get fetches a single project by ID.
func (s *ProjectService) Get(ctx context.Context, id int64) (*model.Project, error) {
	var project model.Project
	if err := s.client.Get(ctx, fmt.Sprintf("/api/projects/%d/", id), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Create creates a project from the given fields.
func (s *ProjectService) Create(ctx context.Context, fields map[string]interface{}) (*model.Project, error) {
	var project model.Project
	if err := s.client.Post(ctx, "/api/projects/", fields, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Update applies a partial update to a project.
func (s *ProjectService) Update(ctx context.Context, id int64, fields map[string]interface{}) (*model.Project, error) {
	var project model.Project
	if err := s.client.Patch(ctx, fmt.Sprintf("/api/projects/%d/", id), fields, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/api/projects/%d/", id))
}

// Stats fetches the per-project task statistics.
func (s *ProjectService) Stats(ctx context.Context, id int64) (*model.ProjectStats, error) {
	var stats model.ProjectStats
	if err := s.client.Get(ctx, fmt.Sprintf("/api/projects/%d/stats/", id), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Members lists the members of a project.
func (s *ProjectService) Members(ctx context.Context, projectID int64) ([]model.ProjectMember, error) {
	var page pagedList[model.ProjectMember]
	if err := s.client.Get(ctx, fmt.Sprintf("/api/projects/%d/members/", projectID), &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// AddMember adds a user to a project.
func (s *ProjectService) AddMember(ctx context.Context, projectID, userID int64) (*model.ProjectMember, error) {
	var member model.ProjectMember
	payload := map[string]int64{"user": userID}
	path := fmt.Sprintf("/api/projects/%d/members/add/", projectID)
	if err := s.client.Post(ctx, path, payload, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember removes a membership record from a project.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, memberID int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/api/projects/%d/members/%d/remove/", projectID, memberID))
}

// RemoveUser removes a user (by account ID) from a project.
func (s *ProjectService) RemoveUser(ctx context.Context, projectID, userID int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/api/projects/%d/members/%d/remove-user/", projectID, userID))
}
