package models

// Major is a field of study picked at signup.
type Major struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:128;uniqueIndex;not null" json:"name"`
}

// SubjectTag labels a mentor's area of experience.
type SubjectTag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:16" json:"color"`
}

// MentorExperience links a mentor to the subject tags they declared.
type MentorExperience struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	MentorID uint `gorm:"uniqueIndex:idx_mentor_tag;not null" json:"mentorId"`
	TagID    uint `gorm:"uniqueIndex:idx_mentor_tag;not null" json:"tagId"`
}
