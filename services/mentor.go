package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/utils"
)

// Status is where a mentor stands in the approval workflow.
type Status string

const (
	StatusNone     Status = "none"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func statusOf(ev models.MentorEvidence) Status {
	switch {
	case ev.IsRejected:
		return StatusRejected
	case ev.IsApproved:
		return StatusApproved
	default:
		return StatusPending
	}
}

// EvidenceView is what an approver sees when reviewing a mentor.
type EvidenceView struct {
	UserID         uint   `json:"userId"`
	IsApprover     bool   `json:"isApprover"`
	MentorUsername string `json:"mentorUsername"`
	IsApproved     bool   `json:"isApproved"`
	IsRejected     bool   `json:"isRejected"`
	Paragraph      string `json:"paragraph"`
	Status         Status `json:"status"`
	Approvals      int    `json:"approvals"`
}

// MentorService runs mentor verification.
type MentorService struct {
	db       *gorm.DB
	notifier *Notifier
	required int
}

// NewMentorService creates the workflow. required < 1 means 2.
func NewMentorService(db *gorm.DB, notifier *Notifier, required int) *MentorService {
	if required < 1 {
		required = 2
	}
	return &MentorService{db: db, notifier: notifier, required: required}
}

// SubmitEvidence stores the mentor's paragraph. The first submission assigns
// every approver a review slot and notifies them; later submissions only
// replace the text.
func (s *MentorService) SubmitEvidence(ctx context.Context, mentorID uint, paragraph string) error {
	paragraph = utils.Sanitize(paragraph)
	if paragraph == "" {
		return ErrEmptyContent
	}
	var mentor models.User
	if err := s.db.WithContext(ctx).First(&mentor, mentorID).Error; err != nil {
		return notFound(err, "mentor %d", mentorID)
	}
	if !mentor.IsMentor {
		return ErrNotMentor
	}

	ev := models.MentorEvidence{MentorID: mentorID, Paragraph: paragraph}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mentor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"paragraph", "updated_at"}),
	}).Create(&ev).Error; err != nil {
		return fmt.Errorf("save evidence: %w", err)
	}

	var assigned int64
	if err := s.db.WithContext(ctx).Model(&models.MentorApproval{}).
		Where("mentor_id = ?", mentorID).Count(&assigned).Error; err != nil {
		return err
	}
	if assigned > 0 {
		return nil
	}

	approvers, err := s.Approvers(ctx)
	if err != nil {
		return err
	}
	approvers = utils.WithoutUint(approvers, mentorID)
	if len(approvers) == 0 {
		utils.Logger.Warn("no approvers to review mentor", zap.Uint("mentor_id", mentorID))
		return nil
	}
	slots := make([]models.MentorApproval, 0, len(approvers))
	for _, id := range approvers {
		slots = append(slots, models.MentorApproval{MentorID: mentorID, ApproverID: id})
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&slots).Error; err != nil {
		return fmt.Errorf("assign approvers: %w", err)
	}

	if _, err := s.notifier.NotifyUsers(ctx, EventApprovalRequested, ApprovalURL(mentorID), approvers); err != nil {
		utils.Logger.Error("approval notification failed", zap.String("op", "submit_evidence"),
			zap.Uint("mentor_id", mentorID), zap.Error(err))
	}
	return nil
}

// Review records one approver's decision and returns the resulting status.
func (s *MentorService) Review(ctx context.Context, mentorID, approverID uint, approve bool) (Status, error) {
	var status Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev models.MentorEvidence
		if err := tx.First(&ev, "mentor_id = ?", mentorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoEvidence
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.MentorApproval{}).
			Where("mentor_id = ? AND approver_id = ? AND is_reviewed = ?", mentorID, approverID, false).
			Updates(map[string]interface{}{"is_reviewed": true, "is_approved": approve, "reviewed_at": &now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var slots int64
			if err := tx.Model(&models.MentorApproval{}).
				Where("mentor_id = ? AND approver_id = ?", mentorID, approverID).
				Count(&slots).Error; err != nil {
				return err
			}
			if slots > 0 {
				return ErrAlreadyReviewed
			}
			return ErrNotApprover
		}

		if approve {
			if err := tx.Model(&models.MentorEvidence{}).Where("mentor_id = ?", mentorID).
				Update("approvals", gorm.Expr("approvals + ?", 1)).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.MentorEvidence{}).
				Where("mentor_id = ? AND approvals >= ? AND is_rejected = ?", mentorID, s.required, false).
				Update("is_approved", true).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.MentorEvidence{}).Where("mentor_id = ?", mentorID).
				Updates(map[string]interface{}{"is_rejected": true, "is_approved": false}).Error; err != nil {
				return err
			}
		}

		if err := tx.First(&ev, "mentor_id = ?", mentorID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", mentorID).
			Update("mentor_approved", ev.IsApproved).Error; err != nil {
			return err
		}
		status = statusOf(ev)
		return nil
	})
	if err != nil {
		return "", err
	}

	decision := "reject"
	if approve {
		decision = "approve"
	}
	utils.IncCounter(utils.MentorReviewsTotal, decision)
	utils.Logger.Info("mentor reviewed", zap.Uint("mentor_id", mentorID),
		zap.Uint("approver_id", approverID), zap.String("decision", decision), zap.String("status", string(status)))
	return status, nil
}

// Status reports the mentor's position; StatusNone before any evidence.
func (s *MentorService) Status(ctx context.Context, mentorID uint) (Status, error) {
	var ev models.MentorEvidence
	if err := s.db.WithContext(ctx).First(&ev, "mentor_id = ?", mentorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StatusNone, nil
		}
		return "", err
	}
	return statusOf(ev), nil
}

// Evidence loads the review page data for mentorID as seen by viewerID.
func (s *MentorService) Evidence(ctx context.Context, mentorID, viewerID uint) (*EvidenceView, error) {
	var mentor models.User
	if err := s.db.WithContext(ctx).Select("id", "username").First(&mentor, mentorID).Error; err != nil {
		return nil, notFound(err, "mentor %d", mentorID)
	}
	view := &EvidenceView{UserID: viewerID, MentorUsername: mentor.Username, Status: StatusNone}

	isApprover, err := s.IsApprover(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	view.IsApprover = isApprover

	var ev models.MentorEvidence
	err = s.db.WithContext(ctx).First(&ev, "mentor_id = ?", mentorID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return view, nil
	case err != nil:
		return nil, err
	}
	view.Paragraph = ev.Paragraph
	view.IsApproved = ev.IsApproved
	view.IsRejected = ev.IsRejected
	view.Approvals = ev.Approvals
	view.Status = statusOf(ev)
	return view, nil
}

// IsApprover reports whether the user holds the approver role.
func (s *MentorService) IsApprover(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, models.RoleApprover).
		Count(&n).Error
	return n > 0, err
}

// Approvers returns every approver's user id, ascending.
func (s *MentorService) Approvers(ctx context.Context) ([]uint, error) {
	ids := []uint{}
	err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("role = ?", models.RoleApprover).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// SeedApprovers grants the approver role to the named users. Unknown usernames
// are skipped; the returned count is how many users now hold the role from this list.
func (s *MentorService) SeedApprovers(ctx context.Context, usernames []string) (int, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username IN ?", usernames).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	roles := make([]models.UserRole, 0, len(ids))
	for _, id := range ids {
		roles = append(roles, models.UserRole{UserID: id, Role: models.RoleApprover})
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return 0, fmt.Errorf("seed approvers: %w", err)
	}
	return len(ids), nil
}
