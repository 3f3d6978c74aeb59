// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a board member, created on first Discord login.
//
// ExternalID is the Discord snowflake and never changes. The internal ID is an
// xid so primary keys are not tied to the provider's numbering.
//
// IsAdmin is recomputed from the configured allow-list on every login and then
// stored; if the allow-list changes, the stored flag is stale until the user
// logs in again.
type User struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"-"`
	DisplayName string    `json:"username"`
	AvatarRef   string    `json:"-"` // Discord avatar hash, may be empty
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}
