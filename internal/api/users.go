package api

import (
	"context"

	"github.com/dmorales/projectboard/internal/model"
)

// UserService wraps the user directory endpoint.
type UserService struct {
	client *Client
}

// NewUserService creates a UserService over the given client.
func NewUserService(c *Client) *UserService {
	return &UserService{client: c}
}

// List fetches all user accounts, used when assigning tasks and
// adding project members.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	var resp struct {
		Users []model.User `json:"users"`
	}
	if err := s.client.Get(ctx, "/api/auth/users/", &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
