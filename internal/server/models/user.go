// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account able to own simulations. PasswordHash never leaves the
// server: it is excluded from JSON.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	TumID         *string   `json:"tum_id"`
	IsTumVerified bool      `json:"is_tum_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserPatch lists user columns to change; nil fields are left untouched.
type UserPatch struct {
	Name          *string
	TumID         *string
	IsTumVerified *bool
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.TumID == nil && p.IsTumVerified == nil
}
