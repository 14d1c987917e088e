package types

import "time"

// Session is the authenticated session reported by the remote auth service.
// The durable mirror of this object is display-only: it is never used to
// authorize a request.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	UserID       string    `json:"user_id"`
}

// User is the identity attached to a session.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email,omitempty"`
	FullName string         `json:"full_name,omitempty"`
	Role     string         `json:"role,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
