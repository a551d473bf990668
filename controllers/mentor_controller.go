package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

// MentorController handles evidence submission and approver reviews.
type MentorController struct {
	mentors *services.MentorService
}

// NewMentorController creates a MentorController.
func NewMentorController(mentors *services.MentorService) *MentorController {
	return &MentorController{mentors: mentors}
}

// SubmitEvidence stores the caller's evidence paragraph.
func (m *MentorController) SubmitEvidence(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	err := m.mentors.SubmitEvidence(ctx.Request.Context(), userID, param(ctx, "paragraph"))
	switch {
	case errors.Is(err, services.ErrNotMentor):
		utils.Error(ctx, http.StatusForbidden, 40320, "only mentors submit evidence")
		return
	case err != nil:
		utils.Logger.Warn("evidence not stored", zap.String("op", "submit_evidence"),
			zap.Uint("mentor_id", userID), zap.Error(err))
	}
	utils.Redirect(ctx, "/")
}

// GetApproval returns the evidence of mentor id and whether the caller may review it.
// Logged-out callers only see the status.
func (m *MentorController) GetApproval(ctx *gin.Context) {
	mentorID := utils.TryParseUint(param(ctx, "id"))
	viewer := viewerID(ctx)

	view, err := m.mentors.Evidence(ctx.Request.Context(), mentorID, viewer)
	if err != nil {
		if !services.IsNotFound(err) {
			utils.Logger.Error("load evidence failed", zap.String("op", "get_approval"),
				zap.Uint("mentor_id", mentorID), zap.Error(err))
		}
		view = &services.EvidenceView{UserID: viewer, Status: services.StatusNone}
	}
	if viewer == 0 {
		view.Paragraph = ""
		view.MentorUsername = ""
	}
	utils.Success(ctx, view)
}

// Review records the caller's approve or reject decision on mentor id.
func (m *MentorController) Review(ctx *gin.Context) {
	approverID, _ := getUserID(ctx)
	mentorID := utils.TryParseUint(param(ctx, "id"))

	var approve bool
	switch param(ctx, "action") {
	case "approve":
		approve = true
	case "reject":
		approve = false
	default:
		utils.Error(ctx, http.StatusBadRequest, 40063, "action must be approve or reject")
		return
	}

	status, err := m.mentors.Review(ctx.Request.Context(), mentorID, approverID, approve)
	switch {
	case err == nil:
		utils.Success(ctx, gin.H{"mentorId": mentorID, "status": status})
	case errors.Is(err, services.ErrNotApprover):
		utils.Error(ctx, http.StatusForbidden, 40321, "not an approver for this mentor")
	case errors.Is(err, services.ErrAlreadyReviewed):
		utils.Error(ctx, http.StatusConflict, 40901, "already reviewed")
	case errors.Is(err, services.ErrNoEvidence):
		utils.Error(ctx, http.StatusNotFound, 40420, "mentor has no evidence")
	default:
		utils.Logger.Error("review failed", zap.String("op", "review"),
			zap.Uint("mentor_id", mentorID), zap.Uint("approver_id", approverID), zap.Error(err))
		// nothing was recorded; report where the mentor still stands
		current, serr := m.mentors.Status(ctx.Request.Context(), mentorID)
		if serr != nil {
			utils.Logger.Error("status lookup failed", zap.String("op", "review"),
				zap.Uint("mentor_id", mentorID), zap.Error(serr))
			current = services.StatusNone
		}
		utils.Success(ctx, gin.H{"mentorId": mentorID, "status": current})
	}
}
