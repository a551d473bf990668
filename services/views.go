package services

import (
	"fmt"
	"time"
)

// QuestionView is a question as listed on the forum, with per-read counts.
type QuestionView struct {
	ID                  uint      `json:"id"`
	Title               string    `json:"title"`
	Body                string    `json:"body"`
	AskerID             uint      `json:"askerId"`
	AskerName           string    `json:"askerName"`
	DateTime            time.Time `json:"dateTime"`
	NumberOfFollowers   int64     `json:"numberOfFollowers"`
	NumberOfAnswers     int64     `json:"numberOfAnswers"`
	UserFollowsQuestion bool      `json:"userFollowsQuestion"`
}

// AnswerView is an answer with its comments, oldest first.
type AnswerView struct {
	ID         uint          `json:"id"`
	QuestionID uint          `json:"questionId"`
	Body       string        `json:"body"`
	AuthorID   uint          `json:"authorId"`
	AuthorName string        `json:"authorName"`
	DateTime   time.Time     `json:"dateTime"`
	Comments   []CommentView `json:"commentList"`
}

// CommentView is a comment under an answer.
type CommentView struct {
	ID         uint      `json:"id"`
	Body       string    `json:"body"`
	AuthorID   uint      `json:"authorId"`
	AuthorName string    `json:"authorName"`
	DateTime   time.Time `json:"dateTime"`
}

// NotificationView is one entry of a user's notification feed.
type NotificationView struct {
	ID        uint      `json:"id"`
	Message   string    `json:"message"`
	URL       string    `json:"url"`
	Timestamp time.Time `gorm:"column:created_at" json:"timestamp"`
}

// ForumPage is one page of a question listing.
type ForumPage struct {
	NextPage      *int           `json:"nextPage"`
	PreviousPage  *int           `json:"previousPage"`
	NumberOfPages int            `json:"numberOfPages"`
	PageQuestions []QuestionView `json:"pageQuestions"`
}

// SplitPages cuts questions into pages of size and returns the requested one.
// Pages are 1-based; out of range pages are clamped.
func SplitPages(questions []QuestionView, page, size int) ForumPage {
	if size <= 0 {
		size = 10
	}
	total := len(questions)
	pages := (total + size - 1) / size
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}

	fp := ForumPage{NumberOfPages: pages, PageQuestions: []QuestionView{}}
	if page < pages {
		next := page + 1
		fp.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		fp.PreviousPage = &prev
	}
	lo := (page - 1) * size
	hi := lo + size
	if hi > total {
		hi = total
	}
	if lo < hi {
		fp.PageQuestions = questions[lo:hi]
	}
	return fp
}

// QuestionURL is the page that shows a question thread.
func QuestionURL(questionID uint) string {
	return fmt.Sprintf("/question.html?id=%d", questionID)
}

// ApprovalURL is the page where approvers review a mentor.
func ApprovalURL(mentorID uint) string {
	return fmt.Sprintf("/approval.html?id=%d", mentorID)
}
