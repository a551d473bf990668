package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

// FollowerController lets the caller follow or unfollow a question or an answer.
type FollowerController struct {
	followers *services.FollowerRegistry
}

// NewFollowerController creates a FollowerController.
func NewFollowerController(followers *services.FollowerRegistry) *FollowerController {
	return &FollowerController{followers: followers}
}

// Update handles type=follow|unfollow with question-id or answer-id.
func (f *FollowerController) Update(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	action := param(ctx, "type")

	kind, targetID := services.TargetQuestion, utils.TryParseUint(param(ctx, "question-id"))
	if answerID := utils.TryParseUint(param(ctx, "answer-id")); answerID > 0 {
		kind, targetID = services.TargetAnswer, answerID
	}

	var err error
	switch action {
	case "follow":
		err = f.followers.Follow(ctx.Request.Context(), kind, targetID, userID)
	case "unfollow":
		err = f.followers.Unfollow(ctx.Request.Context(), kind, targetID, userID)
	default:
		utils.Error(ctx, http.StatusBadRequest, 40060, "type must be follow or unfollow")
		return
	}
	if err != nil {
		utils.Logger.Warn("follow update failed", zap.String("op", action),
			zap.String("target", string(kind)), zap.Uint("target_id", targetID),
			zap.Uint("user_id", userID), zap.Error(err))
	}

	following, ferr := f.followers.IsFollowing(ctx.Request.Context(), kind, targetID, userID)
	if ferr != nil {
		utils.Logger.Error("follow lookup failed", zap.String("op", action), zap.Error(ferr))
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheQuestionsPrefix)
	utils.Success(ctx, gin.H{"target": kind, "id": targetID, "following": following})
}
