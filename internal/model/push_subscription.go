package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// (UserID, Endpoint) is unique.
type PushSubscription struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_push_user_endpoint"`
	Endpoint  string `gorm:"not null;uniqueIndex:idx_push_user_endpoint"`
	P256DH    string `gorm:"column:p256dh;not null;default:''"`
	Auth      string `gorm:"not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User `gorm:"constraint:OnDelete:CASCADE"`
}
