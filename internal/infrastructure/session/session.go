// Package session manages browser sessions for the web frontend. A
// session is the server-side stand-in for the original client's local
// storage: it carries the bearer token and the canonical user under
// fixed keys, and both are always cleared together on logout.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tastevine/web/internal/domain/user"
)

// Session holds one browser session's authentication state.
type Session struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	User      *user.User `json:"user,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// NewSession creates an anonymous session with the given lifetime.
func NewSession(maxAge time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(maxAge),
	}
}

// IsAuthenticated reports whether the session holds a logged-in user.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// IsAdmin reports whether the session's user holds the admin role.
func (s *Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin()
}

// Login stores the token and the normalized user together.
func (s *Session) Login(u user.User, token string) {
	normalized := user.Normalize(u)
	s.Token = token
	s.User = &normalized
}

// Logout clears the token and user together. A session never keeps one
// without the other.
func (s *Session) Logout() {
	s.Token = ""
	s.User = nil
}

// SetFavoriteCount updates the cached totalFavorites after the profile
// re-fetch that follows a like action.
func (s *Session) SetFavoriteCount(count int) {
	if s.User != nil {
		s.User.TotalFavorites = count
	}
}

// Expired reports whether the session itself has outlived its lifetime.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TokenExpired inspects the bearer token's exp claim without verifying
// the signature (the signing key belongs to the backend). Opaque
// non-JWT tokens report false; the backend remains the authority and
// will answer 401 for anything actually invalid.
func (s *Session) TokenExpired() bool {
	if s.Token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}
