package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ticktock/internal/model"
)

// PushRepository stores browser push subscriptions keyed by (user, endpoint).
type PushRepository struct {
	db *gorm.DB
}

func NewPushRepository(db *gorm.DB) *PushRepository {
	return &PushRepository{db: db}
}

// Upsert inserts the subscription or, when the (user, endpoint) pair exists,
// overwrites its keys. It is a single INSERT ... ON CONFLICT statement.
func (r *PushRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	err := r.db.WithContext(ctx).Omit("User").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "updated_at"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// Delete removes the subscription if present. A missing row is not an error.
func (r *PushRepository) Delete(ctx context.Context, userID uint, endpoint string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&model.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (r *PushRepository) ListByUser(ctx context.Context, userID uint) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}
