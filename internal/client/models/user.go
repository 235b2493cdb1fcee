// Package models holds the client-side view of API payloads.
package models

import "time"

// User is an account as returned by the API.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	TumID         *string   `json:"tum_id"`
	IsTumVerified bool      `json:"is_tum_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Registration is the body of a register call.
type Registration struct {
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	Password             string  `json:"password"`
	PasswordConfirmation string  `json:"password_confirmation"`
	TumID                *string `json:"tum_id,omitempty"`
}

// Session is what register and login hand back.
type Session struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}
