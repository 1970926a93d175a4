package models

import (
	"strings"

	"github.com/google/uuid"
)

// User is the locally logged-in account. Login is client-supplied and unauthenticated.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	School string `json:"school,omitempty"`
	Avatar string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// FirstName is what the dashboard greets the user with.
func (u User) FirstName() string {
	first, _, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
	return first
}

// Clean trims the user input, lowers the email and generates a missing ID.
func (u *User) Clean() {
	u.ID = strings.TrimSpace(u.ID)
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.School = strings.TrimSpace(u.School)
	u.Avatar = strings.TrimSpace(u.Avatar)
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
}

// Validate cleans and checks the user payload.
func (u *User) Validate() error {
	u.Clean()
	return Validate.Struct(u)
}
