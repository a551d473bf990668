package models

import (
	"strings"
	"time"
)

// User represents a forum member. Profile fields are fixed after signup,
// only MentorApproved changes afterwards.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FirstName      string    `gorm:"size:64" json:"firstName"`
	LastName       string    `gorm:"size:64" json:"lastName"`
	Username       string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255" json:"-"`
	MajorID        uint      `gorm:"index" json:"majorId"`
	IsMentor       bool      `gorm:"not null;default:false" json:"isMentor"`
	MentorApproved bool      `gorm:"not null;default:false" json:"mentorApproved"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DisplayName is "First Last", falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// RoleApprover marks users allowed to review mentor evidence.
const RoleApprover = "approver"

// UserRole grants a capability to a user.
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_role;not null" json:"userId"`
	Role      string    `gorm:"size:32;uniqueIndex:idx_user_role;not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
