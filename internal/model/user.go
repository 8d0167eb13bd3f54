// Package model defines domain entities for the application.
package model

import "time"

// User is an account that can author articles.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity returns the token identity for the user.
func (u *User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
	}
}

// Identity is the authenticated principal resolved from an identity token.
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Is reports whether the identity refers to the given user id.
// A nil identity never matches.
func (i *Identity) Is(userID string) bool {
	return i != nil && i.ID != "" && i.ID == userID
}
