package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderUser represents the profile returned by an identity provider after sign-in.
// Field names follow the OpenID Connect userinfo document.
type ProviderUser struct {
	ID      string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleUser is an alias for ProviderUser
type GoogleUser = ProviderUser

// User is the local account record, created the first time an email signs in
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      *string   `json:"name" db:"name"`
	GoogleID  *string   `json:"google_id" db:"google_id"`
	Image     *string   `json:"image" db:"image"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewUserFromProvider maps a provider profile onto a user row ready for insertion.
// Empty optional fields are stored as NULL.
func NewUserFromProvider(p ProviderUser) *User {
	return &User{
		Email:    p.Email,
		Name:     nullable(p.Name),
		GoogleID: nullable(p.ID),
		Image:    nullable(p.Picture),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
