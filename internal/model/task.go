package model

import "time"

// Task is a recurring reminder owned by one user.
type Task struct {
	ID            string  `gorm:"primaryKey;size:64"`
	UserID        uint    `gorm:"index;not null"`
	Title         string  `gorm:"size:255;not null"`
	Notes         string  `gorm:"not null;default:''"`
	EveryDays     int     `gorm:"not null;default:1"`
	NextDue       string  `gorm:"size:10;not null;default:''"`     // YYYY-MM-DD
	RemindAt      string  `gorm:"size:5;not null;default:'09:00'"` // HH:MM
	Priority      bool    `gorm:"not null;default:false"`
	LastCompleted *string `gorm:"size:64"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	User *User `gorm:"constraint:OnDelete:CASCADE"`
}
