package api

import (
	"context"

	"github.com/dmorales/projectboard/internal/model"
)

// AuthService wraps the account and authentication endpoints.
type AuthService struct {
	client *Client
}

// NewAuthService creates an AuthService over the given client.
func NewAuthService(c *Client) *AuthService {
	return &AuthService{client: c}
}

// Login exchanges credentials for a token pair and user snapshot.
// The returned tokens are not persisted here; that is the session
// controller's decision.
func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := s.client.Post(ctx, "/api/auth/login/", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account and returns its first token pair.
func (s *AuthService) Register(ctx context.Context, data model.RegisterData) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := s.client.Post(ctx, "/api/auth/register/", data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout notifies the server that the session is ending.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.Post(ctx, "/api/auth/logout/", nil, nil)
}

// CurrentUser fetches the profile of the authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := s.client.Get(ctx, "/api/auth/profile/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update and returns the new
// user snapshot.
func (s *AuthService) UpdateProfile(ctx context.Context, fields map[string]interface{}) (*model.User, error) {
	var user model.User
	if err := s.client.Patch(ctx, "/api/auth/profile/update/", fields, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the account password.
func (s *AuthService) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	return s.client.Post(ctx, "/api/auth/change-password/", change, nil)
}
