// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash is the bcrypt output and is tagged json:"-" so it can never
// leak through an encoder, even if a handler writes the struct directly.
//
// GitHubID is set only for accounts that signed in through GitHub. Such
// accounts have an empty PasswordHash and can't use password login.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GitHubID     *int64    `json:"githubId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
