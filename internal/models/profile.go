package models

import (
	"time"

	"github.com/google/uuid"
)

type UserProfile struct {
	UserID     uuid.UUID  `json:"userId"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	University string     `json:"university"`
	Occupation string     `json:"occupation"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

type UpdateProfileRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	University string `json:"university"`
	Occupation string `json:"occupation"`
}
