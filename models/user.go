package models

import (
	"time"
)

// DefaultRole is assigned to every account created through sign-up
const DefaultRole = "user"

// User represents a user entity. ID is the identity provider's UID.
type User struct {
	ID           string    `json:"id" firestore:"-"`
	Email        string    `json:"email" firestore:"email"`
	PasswordHash string    `json:"-" firestore:"passwordHash,omitempty"` // Never serialize password hash
	FirstName    string    `json:"first_name" firestore:"firstName"`
	LastName     string    `json:"last_name" firestore:"lastName"`
	PhoneNumber  *string   `json:"phone_number,omitempty" firestore:"phoneNumber,omitempty"`
	Role         string    `json:"role" firestore:"role"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updatedAt"`
}

// DisplayName joins first and last name
func (u *User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
