package models

import "time"

// Question is a forum thread opened by a user. Follower and answer counts
// are computed when read.
type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	AskerID   uint      `gorm:"index;not null" json:"askerId"`
	CreatedAt time.Time `gorm:"index" json:"dateTime"`
	Asker     *User     `gorm:"foreignKey:AskerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Answer belongs to exactly one question.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"index;not null" json:"questionId"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	AuthorID   uint      `gorm:"index;not null" json:"authorId"`
	CreatedAt  time.Time `json:"dateTime"`
	Question   *Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Author     *User     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Comment belongs to exactly one answer.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AnswerID  uint      `gorm:"index;not null" json:"answerId"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	AuthorID  uint      `gorm:"index;not null" json:"authorId"`
	CreatedAt time.Time `json:"dateTime"`
	Answer    *Answer   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
