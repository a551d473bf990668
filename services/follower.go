package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mintern/forum/models"
)

// TargetKind names what a user can follow.
type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
)

// ParseTargetKind accepts "question" or "answer", case-insensitively.
func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(strings.ToLower(strings.TrimSpace(s))) {
	case TargetQuestion:
		return TargetQuestion, nil
	case TargetAnswer:
		return TargetAnswer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
}

// FollowerRegistry maintains who follows which question or answer.
// It never touches notification tables.
type FollowerRegistry struct {
	db *gorm.DB
}

// NewFollowerRegistry creates a registry backed by db.
func NewFollowerRegistry(db *gorm.DB) *FollowerRegistry {
	return &FollowerRegistry{db: db}
}

// followTable returns an empty row of the follower table for kind and its target column.
func followTable(kind TargetKind, targetID, userID uint) (interface{}, string, error) {
	switch kind {
	case TargetQuestion:
		return &models.QuestionFollower{QuestionID: targetID, UserID: userID}, "question_id", nil
	case TargetAnswer:
		return &models.AnswerFollower{AnswerID: targetID, UserID: userID}, "answer_id", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidTarget, kind)
	}
}

// Follow makes userID follow an existing question or answer. Following twice
// is a no-op; a missing target is ErrNotFound.
func (r *FollowerRegistry) Follow(ctx context.Context, kind TargetKind, targetID, userID uint) error {
	row, _, err := followTable(kind, targetID, userID)
	if err != nil {
		return err
	}
	if targetID == 0 || userID == 0 {
		return fmt.Errorf("follow %s %d by user %d: %w", kind, targetID, userID, ErrNotFound)
	}
	db := r.db.WithContext(ctx)
	var exists int64
	if err := db.Model(followedModel(kind)).Where("id = ?", targetID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("follow %s %d: %w", kind, targetID, ErrNotFound)
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

// followedModel is the table a follow of kind points at. kind must be valid.
func followedModel(kind TargetKind) interface{} {
	if kind == TargetAnswer {
		return &models.Answer{}
	}
	return &models.Question{}
}

// Unfollow removes the follow row if present. Missing rows are not an error.
func (r *FollowerRegistry) Unfollow(ctx context.Context, kind TargetKind, targetID, userID uint) error {
	row, column, err := followTable(kind, targetID, userID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where(column+" = ? AND user_id = ?", targetID, userID).
		Delete(row).Error
}

// ListFollowers returns the ids of users following the target, ascending.
func (r *FollowerRegistry) ListFollowers(ctx context.Context, kind TargetKind, targetID uint) ([]uint, error) {
	row, column, err := followTable(kind, 0, 0)
	if err != nil {
		return nil, err
	}
	ids := []uint{}
	err = r.db.WithContext(ctx).Model(row).
		Where(column+" = ?", targetID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// IsFollowing reports whether userID follows the target.
func (r *FollowerRegistry) IsFollowing(ctx context.Context, kind TargetKind, targetID, userID uint) (bool, error) {
	row, column, err := followTable(kind, 0, 0)
	if err != nil {
		return false, err
	}
	var n int64
	err = r.db.WithContext(ctx).Model(row).
		Where(column+" = ? AND user_id = ?", targetID, userID).
		Count(&n).Error
	return n > 0, err
}
