package models

import "time"

// User is the last-known profile record returned by the backend.
// It is cached locally for fast startup but is never authoritative:
// every server response that carries a profile supersedes it.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Karma     int       `json:"karma"`
	Exchanges int       `json:"exchangesCompleted"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
