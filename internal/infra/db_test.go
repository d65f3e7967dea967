package infra

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPingWithRetryRecovers(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("starting up")
		}
		return nil
	}
	if err := pingWithRetry(context.Background(), ping, 5, time.Millisecond); err != nil {
		t.Fatalf("pingWithRetry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestPingWithRetryGivesUp(t *testing.T) {
	down := errors.New("refused")
	calls := 0
	err := pingWithRetry(context.Background(), func(context.Context) error { calls++; return down }, 3, time.Millisecond)
	if !errors.Is(err, down) || calls != 3 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestPingWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pingWithRetry(ctx, func(context.Context) error { return errors.New("refused") }, 5, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewDBPoolRequiresConfig(t *testing.T) {
	if _, err := NewDBPool(context.Background(), nil, "api"); err == nil {
		t.Fatal("expected error")
	}
}
