package models

import "time"

// QuestionFollower records that a user follows a question. The pair is unique.
type QuestionFollower struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"uniqueIndex:idx_question_follower;not null" json:"questionId"`
	UserID     uint      `gorm:"uniqueIndex:idx_question_follower;index;not null" json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AnswerFollower records that a user follows an answer. The pair is unique.
type AnswerFollower struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AnswerID  uint      `gorm:"uniqueIndex:idx_answer_follower;not null" json:"answerId"`
	UserID    uint      `gorm:"uniqueIndex:idx_answer_follower;index;not null" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
