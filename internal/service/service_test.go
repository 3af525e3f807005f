package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ticktock/internal/repository"
)

type testEnv struct {
	db    *gorm.DB
	auth  *AuthService
	tasks *TaskService
	push  *PushService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { repository.Close(db) })

	auth := NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		NewTokenSigner("test-secret"),
		time.Hour,
	)
	auth.hashCost = bcrypt.MinCost

	return &testEnv{
		db:    db,
		auth:  auth,
		tasks: NewTaskService(repository.NewTaskRepository(db)),
		push:  NewPushService(repository.NewPushRepository(db), "BPublicKey"),
	}
}

func (e *testEnv) register(t *testing.T, email string) Identity {
	t.Helper()
	sess, err := e.auth.Register(context.Background(), email, "password1")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return sess.Identity
}
