package service

import (
	"context"
	"strings"

	"ticktock/internal/logger"
	"ticktock/internal/model"
)

// PushStore persists browser push subscriptions.
type PushStore interface {
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	Delete(ctx context.Context, userID uint, endpoint string) error
}

// PushKeys are the encryption keys a browser hands out with a subscription.
type PushKeys struct {
	P256DH string
	Auth   string
}

// PushService keeps per-user push subscriptions. It does not deliver pushes.
type PushService struct {
	subs      PushStore
	publicKey string
}

func NewPushService(subs PushStore, publicKey string) *PushService {
	return &PushService{subs: subs, publicKey: strings.TrimSpace(publicKey)}
}

// PublicKey returns the VAPID public key clients subscribe with.
func (s *PushService) PublicKey() (string, error) {
	if s.publicKey == "" {
		return "", newError(ErrServiceUnavailable, "Push not configured", nil)
	}
	return s.publicKey, nil
}

// Subscribe creates or refreshes the caller's subscription for endpoint.
func (s *PushService) Subscribe(ctx context.Context, ident Identity, endpoint string, keys PushKeys) (err error) {
	defer func() { pushOps.WithLabelValues("subscribe", statusLabel(err)).Inc() }()
	if err := requireIdentity(ident); err != nil {
		return err
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return newError(ErrValidation, "endpoint required", nil)
	}

	sub := &model.PushSubscription{
		UserID:   ident.UserID,
		Endpoint: endpoint,
		P256DH:   keys.P256DH,
		Auth:     keys.Auth,
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		logger.Error(ctx, err, "save push subscription")
		return newError(ErrPersistence, "Failed to save subscription", err)
	}
	return nil
}

// Unsubscribe removes the caller's subscription for endpoint. A missing
// subscription is not an error.
func (s *PushService) Unsubscribe(ctx context.Context, ident Identity, endpoint string) (err error) {
	defer func() { pushOps.WithLabelValues("unsubscribe", statusLabel(err)).Inc() }()
	if err := requireIdentity(ident); err != nil {
		return err
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return newError(ErrValidation, "endpoint required", nil)
	}

	if err := s.subs.Delete(ctx, ident.UserID, endpoint); err != nil {
		return newError(ErrPersistence, "Failed to remove subscription", err)
	}
	return nil
}
