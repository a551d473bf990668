package models

import "gorm.io/gorm"

// All lists every persisted model, parents before children.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserRole{},
		&Major{},
		&SubjectTag{},
		&MentorExperience{},
		&Question{},
		&Answer{},
		&Comment{},
		&QuestionFollower{},
		&AnswerFollower{},
		&Notification{},
		&UserNotification{},
		&MentorEvidence{},
		&MentorApproval{},
		&PageView{},
	}
}

// AutoMigrate creates or updates every table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
