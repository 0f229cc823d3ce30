package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the signed-in user as decoded from the stored token.
type Session struct {
	UserID      string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	AvatarRef   string    `json:"picture,omitempty"`
	Role        string    `json:"role,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Claims is the token payload issued by the identity provider. Older
// tokens carry the user id as "userID" instead of "sub".
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"userID,omitempty"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Role    string `json:"role,omitempty"`
}

func (c *Claims) session() *Session {
	s := &Session{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		AvatarRef:   c.Picture,
		Role:        c.Role,
	}
	if s.UserID == "" {
		s.UserID = c.UserID
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
