package models

import "time"

// MentorEvidence is the single verification record of a mentor.
type MentorEvidence struct {
	MentorID   uint      `gorm:"primaryKey;autoIncrement:false" json:"mentorId"`
	Paragraph  string    `gorm:"type:text;not null" json:"paragraph"`
	Approvals  int       `gorm:"not null;default:0" json:"approvals"`
	IsApproved bool      `gorm:"not null;default:false" json:"isApproved"`
	IsRejected bool      `gorm:"not null;default:false" json:"isRejected"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MentorApproval is one approver's review slot for a mentor.
type MentorApproval struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	MentorID   uint       `gorm:"uniqueIndex:idx_mentor_approver;not null" json:"mentorId"`
	ApproverID uint       `gorm:"uniqueIndex:idx_mentor_approver;index;not null" json:"approverId"`
	IsReviewed bool       `gorm:"not null;default:false" json:"isReviewed"`
	IsApproved bool       `gorm:"not null;default:false" json:"isApproved"`
	ReviewedAt *time.Time `json:"reviewedAt"`
}
