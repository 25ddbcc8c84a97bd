// Package user holds the canonical authenticated-user shape. Login and
// profile responses disagree on whether a display name arrives as
// fullName or as first/last pair; normalization settles that once.
package user

import "strings"

// Roles known to the frontend.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the canonical authenticated user. Email is the identity key;
// FullName is always populated after normalization.
type User struct {
	Email          string `json:"email"`
	FullName       string `json:"fullName"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	TotalFavorites int    `json:"totalFavorites"`
	Role           string `json:"role"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Normalize produces the canonical user from a raw API payload shape.
// FullName is derived from first+last when the backend omits it, and
// the role defaults to a plain user.
func Normalize(raw User) User {
	fullName := raw.FullName
	if fullName == "" {
		parts := make([]string, 0, 2)
		if raw.FirstName != "" {
			parts = append(parts, raw.FirstName)
		}
		if raw.LastName != "" {
			parts = append(parts, raw.LastName)
		}
		fullName = strings.TrimSpace(strings.Join(parts, " "))
	}

	role := raw.Role
	if role != RoleAdmin {
		role = RoleUser
	}

	return User{
		Email:          raw.Email,
		FullName:       fullName,
		FirstName:      raw.FirstName,
		LastName:       raw.LastName,
		TotalFavorites: raw.TotalFavorites,
		Role:           role,
	}
}
