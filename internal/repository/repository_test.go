package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"ticktock/internal/model"
)

// newTestDB opens a fresh SQLite database in a temp dir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { Close(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x"}
	if err := NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"a.db":                       "a.db?_foreign_keys=on&_busy_timeout=5000",
		"a.db?cache=shared":          "a.db?cache=shared&_foreign_keys=on&_busy_timeout=5000",
		"a.db?_fk=1&_busy_timeout=1": "a.db?_fk=1&_busy_timeout=1",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "a@x.com")
	if user.ID == 0 {
		t.Fatal("expected generated id")
	}

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{Email: "a@x.com", PasswordHash: "y"})
		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("find", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "a@x.com")
		if err != nil || got.ID != user.ID {
			t.Fatalf("FindByEmail = %v, %v", got, err)
		}
		if _, err := repo.FindByID(ctx, user.ID+100); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete missing", func(t *testing.T) {
		if err := repo.DeleteByEmail(ctx, "nobody@x.com"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, user.ID+100); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete by id", func(t *testing.T) {
		other := seedUser(t, db, "b@x.com")
		if err := repo.Delete(ctx, other.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.FindByID(ctx, other.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.Create(ctx, &model.User{Email: "b@x.com", PasswordHash: "z"}); err != nil {
			t.Fatalf("email not free after delete: %v", err)
		}
	})
}

func TestTaskRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice@x.com")
	bob := seedUser(t, db, "bob@x.com")

	first := &model.Task{ID: "t1", UserID: alice.ID, Title: "Water plants", EveryDays: 1, RemindAt: "09:00"}
	second := &model.Task{ID: "t2", UserID: alice.ID, Title: "Feed cat", EveryDays: 2, RemindAt: "08:00"}
	for _, task := range []*model.Task{first, second} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create %s: %v", task.ID, err)
		}
	}

	t.Run("duplicate id across users", func(t *testing.T) {
		err := repo.Create(ctx, &model.Task{ID: "t1", UserID: bob.ID, Title: "Other"})
		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("list is owner scoped", func(t *testing.T) {
		tasks, err := repo.ListByUser(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(tasks) != 2 {
			t.Fatalf("expected 2 tasks, got %d", len(tasks))
		}

		tasks, err = repo.ListByUser(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if tasks == nil || len(tasks) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", tasks)
		}
	})

	t.Run("find is owner scoped", func(t *testing.T) {
		if _, err := repo.FindByID(ctx, bob.ID, "t1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		done := "2024-05-01"
		first.Title = "Water all plants"
		first.Priority = true
		first.LastCompleted = &done
		if err := repo.Update(ctx, first); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := repo.FindByID(ctx, alice.ID, "t1")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Title != "Water all plants" || !got.Priority || got.LastCompleted == nil || *got.LastCompleted != done {
			t.Fatalf("unexpected task after update: %+v", got)
		}

		got.Priority = false
		got.LastCompleted = nil
		if err := repo.Update(ctx, got); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, _ = repo.FindByID(ctx, alice.ID, "t1")
		if got.Priority || got.LastCompleted != nil {
			t.Fatalf("falsy values not stored: %+v", got)
		}
	})

	t.Run("update by other owner", func(t *testing.T) {
		hijack := *second
		hijack.UserID = bob.ID
		if err := repo.Update(ctx, &hijack); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, bob.ID, "t2"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
		}
		if err := repo.Delete(ctx, alice.ID, "t2"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := repo.Delete(ctx, alice.ID, "t2"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestPushRepositoryUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewPushRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "a@x.com")

	if err := repo.Upsert(ctx, &model.PushSubscription{UserID: user.ID, Endpoint: "https://push/1", P256DH: "k1", Auth: "a1"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, &model.PushSubscription{UserID: user.ID, Endpoint: "https://push/1", P256DH: "k2", Auth: "a2"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	subs, err := repo.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}
	if subs[0].P256DH != "k2" || subs[0].Auth != "a2" {
		t.Fatalf("keys not overwritten: %+v", subs[0])
	}

	if err := repo.Delete(ctx, user.ID, "https://push/missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if err := repo.Delete(ctx, user.ID, "https://push/1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	subs, _ = repo.ListByUser(ctx, user.ID)
	if len(subs) != 0 {
		t.Fatalf("expected no subscriptions, got %d", len(subs))
	}
}

func TestPushRepositoryConcurrentUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewPushRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "a@x.com")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Upsert(ctx, &model.PushSubscription{UserID: user.ID, Endpoint: "https://push/same", P256DH: "k", Auth: "a"})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	subs, _ := repo.ListByUser(ctx, user.ID)
	if len(subs) != 1 {
		t.Fatalf("expected exactly 1 subscription, got %d", len(subs))
	}
}

func TestSessionRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "a@x.com")
	now := time.Now()

	live := &model.Session{ID: "live", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}
	stale := &model.Session{ID: "stale", UserID: user.ID, ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*model.Session{live, stale} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := repo.PurgeExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpired = %d, %v", n, err)
	}
	if _, err := repo.Find(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stale session gone, got %v", err)
	}
	if _, err := repo.Find(ctx, "live"); err != nil {
		t.Fatalf("Find live: %v", err)
	}
	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Find(ctx, "live"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)
	push := NewPushRepository(db)
	sessions := NewSessionRepository(db)

	user := seedUser(t, db, "gone@x.com")
	keeper := seedUser(t, db, "stay@x.com")

	if err := tasks.Create(ctx, &model.Task{ID: "g1", UserID: user.ID, Title: "t"}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := tasks.Create(ctx, &model.Task{ID: "k1", UserID: keeper.ID, Title: "t"}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := push.Upsert(ctx, &model.PushSubscription{UserID: user.ID, Endpoint: "e"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := sessions.Create(ctx, &model.Session{ID: "s1", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := users.DeleteByEmail(ctx, "gone@x.com"); err != nil {
		t.Fatalf("DeleteByEmail: %v", err)
	}

	var count int64
	db.Model(&model.Task{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("tasks not cascaded: %d left", count)
	}
	db.Model(&model.PushSubscription{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("subscriptions not cascaded: %d left", count)
	}
	db.Model(&model.Session{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("sessions not cascaded: %d left", count)
	}
	if _, err := tasks.FindByID(ctx, keeper.ID, "k1"); err != nil {
		t.Errorf("other user's task affected: %v", err)
	}
}
