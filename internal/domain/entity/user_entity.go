package entity

import (
	"strings"
	"time"
)

// Gender is the fixed enumeration stored in the users.gender column.
type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// User is the aggregate root for the account domain.
// Password holds the bcrypt hash and must never leave the service layer;
// outward representations go through ToResponse.
type User struct {
	ID          string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Gender      *Gender
	Phone       *string
	IsActive    bool
	IsVerified  bool
	VerifiedAt  *time.Time
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName is the trimmed concatenation of first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// UserResponse is the outward-facing shape of a user record. It is always
// derived fresh from the entity and carries no credential material.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      *Gender    `json:"gender,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsVerified  bool       `json:"is_verified"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		DateOfBirth: u.DateOfBirth,
		Gender:      u.Gender,
		Phone:       u.Phone,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		VerifiedAt:  u.VerifiedAt,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UserUpdate carries a partial profile update; nil fields are left untouched.
type UserUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	DateOfBirth *time.Time
	Gender      *Gender
	Phone       *string
}

// SortField enumerates the columns the listing endpoint may sort by.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByFirstName SortField = "first_name"
	SortByLastName  SortField = "last_name"
	SortByEmail     SortField = "email"
)

func (s SortField) Valid() bool {
	switch s {
	case SortByCreatedAt, SortByFirstName, SortByLastName, SortByEmail:
		return true
	}
	return false
}

const MaxListLimit = 100

// ListFilter drives the paginated user listing. IsActive defaults to true
// when nil; Search matches first name, last name, and email case-insensitively.
type ListFilter struct {
	Page      int
	Limit     int
	Search    string
	IsActive  *bool
	Gender    Gender
	SortBy    SortField
	SortOrder string // asc or desc
}

func (f *ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// UserStats is the aggregate counters exposed by the stats endpoint.
type UserStats struct {
	ActiveUsers    int64 `json:"active_users"`
	NewLast24Hours int64 `json:"new_last_24_hours"`
}
