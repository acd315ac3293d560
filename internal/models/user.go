package models

import (
	"strings"
	"time"
)

// User is a platform account keyed by the external Telegram id. Counters are
// adjusted by lifecycle transitions only, never written directly from input.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`

	Phone     string `json:"phone,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	Location  string `json:"location,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Gender    string `json:"gender,omitempty"`

	GoalsCreated int `json:"goalsCreated"`
	GoalsJoined  int `json:"goalsJoined"`
	Diamonds     int `json:"diamonds"`
	StartCount   int `json:"start_count,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	LastActive *time.Time `json:"last_active,omitempty"`
}

// DisplayName returns the name shown in posts and participant lists.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
