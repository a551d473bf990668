package models

import "time"

// Notification is written once per triggering event.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Message   string    `gorm:"size:255;not null" json:"message"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}

// UserNotification fans a notification out to one recipient.
type UserNotification struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"uniqueIndex:idx_user_notification;index;not null" json:"userId"`
	NotificationID uint          `gorm:"uniqueIndex:idx_user_notification;not null" json:"notificationId"`
	Notification   *Notification `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}
