package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

// NotificationController exposes the notification feed and manual fan-outs.
type NotificationController struct {
	notifier *services.Notifier
	content  *services.ContentService
}

// NewNotificationController creates a NotificationController.
func NewNotificationController(notifier *services.Notifier, content *services.ContentService) *NotificationController {
	return &NotificationController{notifier: notifier, content: content}
}

// List returns the notifications of user id, newest first. Users read their own
// feed; admins may read any.
func (n *NotificationController) List(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	target := userID
	if raw := param(ctx, "id"); raw != "" {
		target = utils.TryParseUint(raw)
	}
	if target != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "cannot read another user's notifications")
		return
	}

	feed, err := n.notifier.ListForUser(ctx.Request.Context(), target)
	if err != nil {
		utils.Logger.Error("list notifications failed", zap.String("op", "list_notifications"),
			zap.Uint("user_id", target), zap.Error(err))
		feed = []services.NotificationView{}
	}
	utils.Success(ctx, feed)
}

// Create records a notification for the followers of type/elementId.
func (n *NotificationController) Create(ctx *gin.Context) {
	kind, err := services.ParseTargetKind(param(ctx, "type"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "type must be question or answer")
		return
	}
	elementID := utils.TryParseUint(param(ctx, "elementId"))

	questionID := elementID
	if kind == services.TargetAnswer {
		if questionID, err = n.content.QuestionIDOfAnswer(ctx.Request.Context(), elementID); err != nil {
			utils.Logger.Warn("notification target missing", zap.String("op", "create_notification"),
				zap.Uint("answer_id", elementID), zap.Error(err))
			utils.Success(ctx, services.NotifyResult{})
			return
		}
	}

	result, err := n.notifier.Notify(ctx.Request.Context(), kind, elementID,
		services.EventForTarget(kind), services.QuestionURL(questionID))
	if err != nil {
		utils.Logger.Error("notification failed", zap.String("op", "create_notification"),
			zap.String("target", string(kind)), zap.Uint("target_id", elementID), zap.Error(err))
	}
	if result == nil {
		result = &services.NotifyResult{}
	}
	utils.Success(ctx, result)
}

// Delete removes a notification and every user's copy of it.
func (n *NotificationController) Delete(ctx *gin.Context) {
	id := utils.TryParseUint(ctx.Param("id"))
	if err := n.notifier.Delete(ctx.Request.Context(), id); err != nil {
		if services.IsNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40410, "notification not found")
			return
		}
		utils.Logger.Error("delete notification failed", zap.String("op", "delete_notification"),
			zap.Uint("notification_id", id), zap.Error(err))
		utils.Success(ctx, gin.H{"id": id, "deleted": false})
		return
	}
	utils.Success(ctx, gin.H{"id": id, "deleted": true})
}

// Email mails the activity digest to followers of typeOfNotification/modifiedElementId.
func (n *NotificationController) Email(ctx *gin.Context) {
	kind, err := services.ParseTargetKind(firstParam(ctx, "typeOfNotification", "type"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "typeOfNotification must be question or answer")
		return
	}
	elementID := utils.TryParseUint(param(ctx, "modifiedElementId"))

	recipients, err := n.notifier.MailFollowers(ctx.Request.Context(), kind, elementID)
	if err != nil {
		utils.Logger.Warn("follower email failed", zap.String("op", "email"),
			zap.String("target", string(kind)), zap.Uint("target_id", elementID), zap.Error(err))
	}
	utils.Success(ctx, gin.H{"recipients": recipients, "sent": err == nil && recipients > 0})
}
