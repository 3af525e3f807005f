package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

type purgerFunc func(ctx context.Context) (int64, error)

func (f purgerFunc) PurgeExpiredSessions(ctx context.Context) (int64, error) { return f(ctx) }

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("03:30")
	if err != nil || spec != "0 30 3 * * *" {
		t.Errorf("buildDailySpec = %q, %v", spec, err)
	}

	for _, bad := range []string{"", "3", "24:00", "12:60", "aa:bb", "1:2:3"} {
		if _, err := buildDailySpec(bad); err == nil {
			t.Errorf("buildDailySpec(%q) expected error", bad)
		}
	}
}

func TestScheduleSessionPurge(t *testing.T) {
	s := NewSchedulerService(time.UTC)

	if _, err := s.ScheduleSessionPurge("03:30", purgerFunc(func(context.Context) (int64, error) { return 0, nil })); err != nil {
		t.Fatalf("ScheduleSessionPurge: %v", err)
	}
	if _, err := s.ScheduleSessionPurge("bad", nil); err == nil {
		t.Error("expected error for malformed time")
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}

	s.Start()
	s.Stop()
}

func TestRunSessionPurge(t *testing.T) {
	calls := 0
	RunSessionPurge(context.Background(), purgerFunc(func(context.Context) (int64, error) {
		calls++
		return 3, nil
	}))
	RunSessionPurge(context.Background(), purgerFunc(func(context.Context) (int64, error) {
		calls++
		return 0, errors.New("db down")
	}))
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
