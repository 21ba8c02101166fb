package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is a contact owned by a user
type Person struct {
	ID              int64         `json:"id" db:"id"`
	UserID          uuid.NullUUID `json:"user_id" db:"user_id"`
	Name            string        `json:"name" db:"name"`
	Company         *string       `json:"company" db:"company"`
	Email           *string       `json:"email" db:"email"`
	Phone           *string       `json:"phone" db:"phone"`
	Notes           *string       `json:"notes" db:"notes"`
	FollowUpDate    *Date         `json:"follow_up_date" db:"follow_up_date"`
	LastContactDate *Date         `json:"last_contact_date" db:"last_contact_date"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// NewPerson carries the validated fields of a contact about to be inserted.
// Name is already trimmed and non-empty.
type NewPerson struct {
	UserID  uuid.NullUUID
	Name    string
	Company *string
}
