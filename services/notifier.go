package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/utils"
)

// Event is what happened to a followed entity.
type Event string

const (
	EventNewAnswer         Event = "new_answer"
	EventNewComment        Event = "new_comment"
	EventApprovalRequested Event = "approval_requested"
)

var eventMessages = map[Event]string{
	EventNewAnswer:         "You got an answer",
	EventNewComment:        "Somebody commented your answer",
	EventApprovalRequested: "A mentor is waiting for your approval",
}

// MessageFor returns the fixed notification text of an event.
func MessageFor(e Event) (string, error) {
	msg, ok := eventMessages[e]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, e)
	}
	return msg, nil
}

// EventForTarget maps the kind of modified entity to the event its followers hear about:
// something new under a question is an answer, under an answer a comment.
func EventForTarget(kind TargetKind) Event {
	if kind == TargetAnswer {
		return EventNewComment
	}
	return EventNewAnswer
}

// Mailer delivers a message to hidden recipients.
type Mailer interface {
	Send(ctx context.Context, bcc []string, subject, body string) error
}

const (
	activitySubject = "Activity on Mintern!"
	activityBody    = "Dear mintern,\nYou have new notifications in Mintern!\nFeel free to login and check it at: %s\n\nBest wishes!\nThe Mintern Team"
)

// NotifyResult reports what a fan-out achieved.
type NotifyResult struct {
	NotificationID uint `json:"notificationId"`
	Recipients     int  `json:"recipients"`
	Delivered      int  `json:"delivered"`
	Failed         int  `json:"failed"`
}

// Notifier writes notifications and fans them out to recipients.
type Notifier struct {
	db        *gorm.DB
	followers *FollowerRegistry
	mailer    Mailer
	siteURL   string
}

// NewNotifier creates a notifier. Mail is off until WithMailer is called.
func NewNotifier(db *gorm.DB, followers *FollowerRegistry) *Notifier {
	return &Notifier{db: db, followers: followers}
}

// WithMailer enables an email digest to recipients after each fan-out.
func (n *Notifier) WithMailer(m Mailer, siteURL string) *Notifier {
	n.mailer = m
	n.siteURL = strings.TrimRight(siteURL, "/")
	return n
}

// Notify records one notification for event and links it to every follower of the target.
// The notification row is written before followers are resolved; if resolution fails it
// stays without recipients. Each fan-out row is inserted on its own, so one failure does
// not stop the others.
func (n *Notifier) Notify(ctx context.Context, kind TargetKind, targetID uint, event Event, url string) (*NotifyResult, error) {
	msg, err := MessageFor(event)
	if err != nil {
		return nil, err
	}
	if _, _, err := followTable(kind, 0, 0); err != nil {
		return nil, err
	}

	notification, err := n.create(ctx, event, msg, url)
	if err != nil {
		return nil, err
	}
	result := &NotifyResult{NotificationID: notification.ID}

	recipients, err := n.followers.ListFollowers(ctx, kind, targetID)
	if err != nil {
		utils.Logger.Error("notification left without recipients",
			zap.String("op", "notify"),
			zap.Uint("notification_id", notification.ID),
			zap.String("target", string(kind)),
			zap.Uint("target_id", targetID),
			zap.Error(err))
		return result, fmt.Errorf("resolve followers of %s %d: %w", kind, targetID, err)
	}

	n.fanOut(ctx, notification, recipients, result)
	n.mail(ctx, recipients)
	return result, nil
}

// NotifyUsers is Notify with an explicit recipient set.
func (n *Notifier) NotifyUsers(ctx context.Context, event Event, url string, userIDs []uint) (*NotifyResult, error) {
	msg, err := MessageFor(event)
	if err != nil {
		return nil, err
	}
	notification, err := n.create(ctx, event, msg, url)
	if err != nil {
		return nil, err
	}
	result := &NotifyResult{NotificationID: notification.ID}
	n.fanOut(ctx, notification, userIDs, result)
	n.mail(ctx, userIDs)
	return result, nil
}

func (n *Notifier) create(ctx context.Context, event Event, msg, url string) (*models.Notification, error) {
	notification := &models.Notification{Message: msg, URL: url}
	if err := n.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	utils.IncCounter(utils.NotificationsCreatedTotal, string(event))
	return notification, nil
}

func (n *Notifier) fanOut(ctx context.Context, notification *models.Notification, userIDs []uint, result *NotifyResult) {
	userIDs = utils.UniqueUint(userIDs)
	result.Recipients = len(userIDs)
	for _, userID := range userIDs {
		row := models.UserNotification{UserID: userID, NotificationID: notification.ID}
		if err := n.db.WithContext(ctx).Create(&row).Error; err != nil {
			result.Failed++
			utils.IncCounter(utils.NotificationDeliveryTotal, "error")
			utils.Logger.Error("notification fan-out failed",
				zap.String("op", "notify"),
				zap.Uint("notification_id", notification.ID),
				zap.Uint("user_id", userID),
				zap.Error(err))
			continue
		}
		result.Delivered++
		utils.IncCounter(utils.NotificationDeliveryTotal, "ok")
	}
}

func (n *Notifier) mail(ctx context.Context, userIDs []uint) {
	if n.mailer == nil || len(userIDs) == 0 {
		return
	}
	if err := n.MailUsers(ctx, userIDs); err != nil {
		utils.Logger.Warn("notification email failed", zap.Int("recipients", len(userIDs)), zap.Error(err))
	}
}

// MailUsers sends the activity digest to the given users in a single BCC message.
func (n *Notifier) MailUsers(ctx context.Context, userIDs []uint) error {
	if n.mailer == nil {
		return utils.ErrSMTPNotConfigured
	}
	if len(userIDs) == 0 {
		return nil
	}
	var emails []string
	if err := n.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN ? AND email <> ''", userIDs).
		Order("id ASC").
		Pluck("email", &emails).Error; err != nil {
		return fmt.Errorf("load recipient emails: %w", err)
	}
	if len(emails) == 0 {
		return nil
	}
	return n.mailer.Send(ctx, emails, activitySubject, fmt.Sprintf(activityBody, n.siteURL+"/"))
}

// MailFollowers sends the activity digest to every follower of the target.
func (n *Notifier) MailFollowers(ctx context.Context, kind TargetKind, targetID uint) (int, error) {
	recipients, err := n.followers.ListFollowers(ctx, kind, targetID)
	if err != nil {
		return 0, err
	}
	return len(recipients), n.MailUsers(ctx, recipients)
}

// ListForUser returns the user's notifications, most recent first.
func (n *Notifier) ListForUser(ctx context.Context, userID uint) ([]NotificationView, error) {
	views := []NotificationView{}
	err := n.db.WithContext(ctx).
		Table("user_notifications AS un").
		Select("n.id AS id, n.message AS message, n.url AS url, n.created_at AS created_at").
		Joins("JOIN notifications AS n ON n.id = un.notification_id").
		Where("un.user_id = ?", userID).
		Order("n.created_at DESC, n.id DESC").
		Scan(&views).Error
	return views, err
}

// Delete removes a notification together with its fan-out rows.
func (n *Notifier) Delete(ctx context.Context, notificationID uint) error {
	return n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("notification_id = ?", notificationID).Delete(&models.UserNotification{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Notification{}, notificationID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// IsNotFound reports whether err means a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
