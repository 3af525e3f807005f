package model

import "time"

// User is an identity that owns tasks, push subscriptions and sessions.
// Email is stored normalized (trimmed, lower case).
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
