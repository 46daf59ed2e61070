package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFakeSleepAdvances(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)
	var woke []time.Time
	f.OnWake(func(now time.Time) { woke = append(woke, now) })

	if err := f.Sleep(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	f.Advance(time.Minute)
	if got := f.Now(); !got.Equal(start.Add(63 * time.Second)) {
		t.Fatalf("Now = %v", got)
	}
	if len(woke) != 1 || !woke[0].Equal(start.Add(3*time.Second)) {
		t.Fatalf("wake hook saw %v", woke)
	}
	if s := f.Slept(); len(s) != 1 || s[0] != 3*time.Second {
		t.Fatalf("Slept = %v", s)
	}
}

func TestFakeSleepCancelledInHook(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	f.OnWake(func(time.Time) { cancel() })
	if err := f.Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep = %v, want canceled", err)
	}
	if err := f.Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep on done ctx = %v", err)
	}
	if n := len(f.Slept()); n != 1 {
		t.Fatalf("a sleep on a done ctx should not advance, got %d sleeps", n)
	}
}

func TestRealSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := (Real{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancelled sleep blocked")
	}
	if err := (Real{}).Sleep(context.Background(), 0); err != nil {
		t.Fatalf("zero sleep: %v", err)
	}
}
