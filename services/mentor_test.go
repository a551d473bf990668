package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/testutil"
)

type MentorWorkflowSuite struct {
	suite.Suite
	db        *gorm.DB
	svc       *MentorService
	notifier  *Notifier
	mentor    models.User
	approvers []models.User
}

func TestMentorWorkflowSuite(t *testing.T) {
	suite.Run(t, new(MentorWorkflowSuite))
}

func (s *MentorWorkflowSuite) SetupTest() {
	t := s.T()
	testutil.UseTestConfig(t)
	s.db = testutil.NewTestDB(t)
	s.notifier = NewNotifier(s.db, NewFollowerRegistry(s.db))
	s.svc = NewMentorService(s.db, s.notifier, 2)

	s.mentor = testutil.CreateUser(t, s.db, "mentor", func(u *models.User) { u.IsMentor = true })
	s.approvers = []models.User{
		testutil.CreateUser(t, s.db, "approver1"),
		testutil.CreateUser(t, s.db, "approver2"),
		testutil.CreateUser(t, s.db, "approver3"),
	}
	n, err := s.svc.SeedApprovers(context.Background(), []string{"approver1", "approver2", "approver3", "ghost"})
	require.NoError(t, err)
	s.Equal(3, n)
}

func (s *MentorWorkflowSuite) submit() {
	s.Require().NoError(s.svc.SubmitEvidence(context.Background(), s.mentor.ID, "I mentored 20 interns"))
}

func (s *MentorWorkflowSuite) TestSubmitAssignsApproversAndNotifies() {
	ctx := context.Background()
	status, err := s.svc.Status(ctx, s.mentor.ID)
	s.Require().NoError(err)
	s.Equal(StatusNone, status)

	s.submit()

	var slots int64
	s.Require().NoError(s.db.Model(&models.MentorApproval{}).Where("mentor_id = ?", s.mentor.ID).Count(&slots).Error)
	s.Equal(int64(3), slots)

	for _, a := range s.approvers {
		feed, err := s.notifier.ListForUser(ctx, a.ID)
		s.Require().NoError(err)
		s.Require().Len(feed, 1)
		s.Equal(ApprovalURL(s.mentor.ID), feed[0].URL)
	}

	status, err = s.svc.Status(ctx, s.mentor.ID)
	s.Require().NoError(err)
	s.Equal(StatusPending, status)
}

func (s *MentorWorkflowSuite) TestResubmitReplacesParagraphOnly() {
	ctx := context.Background()
	s.submit()
	s.Require().NoError(s.svc.SubmitEvidence(ctx, s.mentor.ID, "Updated evidence"))

	var slots, notifications int64
	s.Require().NoError(s.db.Model(&models.MentorApproval{}).Count(&slots).Error)
	s.Require().NoError(s.db.Model(&models.Notification{}).Count(&notifications).Error)
	s.Equal(int64(3), slots)
	s.Equal(int64(1), notifications)

	view, err := s.svc.Evidence(ctx, s.mentor.ID, s.approvers[0].ID)
	s.Require().NoError(err)
	s.Equal("Updated evidence", view.Paragraph)
	s.True(view.IsApprover)
	s.Equal("mentor", view.MentorUsername)
}

func (s *MentorWorkflowSuite) TestTwoApprovalsApprove() {
	ctx := context.Background()
	s.submit()

	status, err := s.svc.Review(ctx, s.mentor.ID, s.approvers[0].ID, true)
	s.Require().NoError(err)
	s.Equal(StatusPending, status)

	status, err = s.svc.Review(ctx, s.mentor.ID, s.approvers[1].ID, true)
	s.Require().NoError(err)
	s.Equal(StatusApproved, status)

	var mentor models.User
	s.Require().NoError(s.db.First(&mentor, s.mentor.ID).Error)
	s.True(mentor.MentorApproved)

	view, err := s.svc.Evidence(ctx, s.mentor.ID, s.mentor.ID)
	s.Require().NoError(err)
	s.Equal(2, view.Approvals)
	s.True(view.IsApproved)
	s.False(view.IsApprover)
}

func (s *MentorWorkflowSuite) TestSameApproverCountsOnce() {
	ctx := context.Background()
	s.submit()

	_, err := s.svc.Review(ctx, s.mentor.ID, s.approvers[0].ID, true)
	s.Require().NoError(err)
	_, err = s.svc.Review(ctx, s.mentor.ID, s.approvers[0].ID, true)
	s.True(errors.Is(err, ErrAlreadyReviewed))

	status, err := s.svc.Status(ctx, s.mentor.ID)
	s.Require().NoError(err)
	s.Equal(StatusPending, status)
}

func (s *MentorWorkflowSuite) TestRejectionIsTerminal() {
	ctx := context.Background()
	s.submit()

	status, err := s.svc.Review(ctx, s.mentor.ID, s.approvers[0].ID, false)
	s.Require().NoError(err)
	s.Equal(StatusRejected, status)

	_, err = s.svc.Review(ctx, s.mentor.ID, s.approvers[1].ID, true)
	s.Require().NoError(err)
	status, err = s.svc.Review(ctx, s.mentor.ID, s.approvers[2].ID, true)
	s.Require().NoError(err)
	s.Equal(StatusRejected, status)

	var mentor models.User
	s.Require().NoError(s.db.First(&mentor, s.mentor.ID).Error)
	s.False(mentor.MentorApproved)
}

func (s *MentorWorkflowSuite) TestRejectAfterApprovalRevokes() {
	ctx := context.Background()
	s.submit()

	_, err := s.svc.Review(ctx, s.mentor.ID, s.approvers[0].ID, true)
	s.Require().NoError(err)
	_, err = s.svc.Review(ctx, s.mentor.ID, s.approvers[1].ID, true)
	s.Require().NoError(err)
	status, err := s.svc.Review(ctx, s.mentor.ID, s.approvers[2].ID, false)
	s.Require().NoError(err)
	s.Equal(StatusRejected, status)
}

func (s *MentorWorkflowSuite) TestReviewErrors() {
	ctx := context.Background()

	_, err := s.svc.Review(ctx, s.mentor.ID, s.approvers[0].ID, true)
	s.True(errors.Is(err, ErrNoEvidence))

	s.submit()
	outsider := testutil.CreateUser(s.T(), s.db, "outsider")
	_, err = s.svc.Review(ctx, s.mentor.ID, outsider.ID, true)
	s.True(errors.Is(err, ErrNotApprover))
}

func (s *MentorWorkflowSuite) TestSubmitRequiresMentor() {
	ctx := context.Background()
	mentee := testutil.CreateUser(s.T(), s.db, "mentee")

	err := s.svc.SubmitEvidence(ctx, mentee.ID, "not a mentor")
	s.True(errors.Is(err, ErrNotMentor))

	err = s.svc.SubmitEvidence(ctx, 999, "nobody")
	s.True(errors.Is(err, ErrNotFound))

	err = s.svc.SubmitEvidence(ctx, s.mentor.ID, "   ")
	s.True(errors.Is(err, ErrEmptyContent))
}

func (s *MentorWorkflowSuite) TestApproverMentorIsNotAssignedToSelf() {
	ctx := context.Background()
	s.Require().NoError(s.db.Model(&models.User{}).Where("id = ?", s.approvers[0].ID).
		Update("is_mentor", true).Error)

	s.Require().NoError(s.svc.SubmitEvidence(ctx, s.approvers[0].ID, "approver applying"))

	var self int64
	s.Require().NoError(s.db.Model(&models.MentorApproval{}).
		Where("mentor_id = ? AND approver_id = ?", s.approvers[0].ID, s.approvers[0].ID).
		Count(&self).Error)
	s.Zero(self)
}
