package supabase

import (
	"context"
	"fmt"
	"strings"

	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"thumbnail-editor-backend/internal/models"
)

// AuthClient drives the emailed one-time code flow against Supabase Auth.
type AuthClient struct {
	auth gotrue.Client
}

func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{auth: client.Supabase.Auth}
}

// SendOTP emails a one-time code, creating the user on first sign in.
func (a *AuthClient) SendOTP(ctx context.Context, email string) error {
	err := a.auth.OTP(types.OTPRequest{
		Email:      strings.TrimSpace(email),
		CreateUser: true,
		Data:       map[string]interface{}{},
	})
	if err != nil {
		return fmt.Errorf("failed to send one-time code: %w", err)
	}
	return nil
}

// VerifyOTP exchanges an emailed code for a session.
func (a *AuthClient) VerifyOTP(ctx context.Context, email, code string) (*models.SessionResponse, error) {
	resp, err := a.auth.VerifyForUser(types.VerifyForUserRequest{
		Type:  types.VerificationType("email"),
		Token: strings.TrimSpace(code),
		Email: strings.TrimSpace(email),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify one-time code: %w", err)
	}

	return &models.SessionResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresAt:    resp.ExpiresAt,
		User: models.UserResponse{
			ID:    resp.User.ID.String(),
			Email: resp.User.Email,
		},
	}, nil
}

// SignOut revokes the session behind accessToken.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	if err := a.auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}
