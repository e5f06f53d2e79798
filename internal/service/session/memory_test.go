package session

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestStore(t *testing.T, clock *fakeClock) Store {
	t.Helper()
	store, err := NewStore(StoreTypeMemory, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewStore err: %v", err)
	}
	return store
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestAppendTruncatesToWindow(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newTestStore(t, clock)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := store.Append(ctx, "s1", fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	messages, err := store.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("Messages err: %v", err)
	}
	if len(messages) != MaxMessages {
		t.Fatalf("unexpected window size: got %d want %d", len(messages), MaxMessages)
	}
	for i, msg := range messages {
		want := fmt.Sprintf("message %d", i+4)
		if msg != want {
			t.Fatalf("unexpected message at %d: got %q want %q", i, msg, want)
		}
	}
}

func TestExpiredSessionReadsEmpty(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newTestStore(t, clock)
	ctx := context.Background()

	if err := store.Append(ctx, "s1", "hello"); err != nil {
		t.Fatalf("Append err: %v", err)
	}
	if err := store.SetLastContext(ctx, "s1", "resolved context"); err != nil {
		t.Fatalf("SetLastContext err: %v", err)
	}

	clock.Advance(DefaultTTL + time.Second)

	messages, err := store.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("Messages err: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(messages))
	}

	lastContext, err := store.LastContext(ctx, "s1")
	if err != nil {
		t.Fatalf("LastContext err: %v", err)
	}
	if lastContext != "" {
		t.Fatalf("expected empty lastContext, got %q", lastContext)
	}
}

func TestLastContextRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newTestStore(t, clock)
	ctx := context.Background()

	if err := store.SetLastContext(ctx, "s1", "grounding text"); err != nil {
		t.Fatalf("SetLastContext err: %v", err)
	}

	got, err := store.LastContext(ctx, "s1")
	if err != nil {
		t.Fatalf("LastContext err: %v", err)
	}
	if got != "grounding text" {
		t.Fatalf("unexpected lastContext: %q", got)
	}
}

func TestAppendRefreshesExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newTestStore(t, clock)
	ctx := context.Background()

	_ = store.Append(ctx, "s1", "first")
	clock.Advance(DefaultTTL - time.Minute)
	_ = store.Append(ctx, "s1", "second")
	clock.Advance(DefaultTTL - time.Minute)

	messages, _ := store.Messages(ctx, "s1")
	if len(messages) != 2 {
		t.Fatalf("expected refreshed session to survive, got %d messages", len(messages))
	}
}

func TestSweepEvictsExpired(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newTestStore(t, clock)
	ctx := context.Background()

	_ = store.Append(ctx, "old", "stale")
	clock.Advance(DefaultTTL + time.Second)
	_ = store.Append(ctx, "fresh", "alive")

	sweeper, ok := store.(Sweeper)
	if !ok {
		t.Fatal("memory store must implement Sweeper")
	}
	if n := sweeper.Sweep(); n != 1 {
		t.Fatalf("unexpected eviction count: got %d want 1", n)
	}

	messages, _ := store.Messages(ctx, "fresh")
	if len(messages) != 1 {
		t.Fatalf("fresh session must survive sweep, got %d messages", len(messages))
	}
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	if _, err := NewStore(StoreType("bolt")); err == nil {
		t.Fatal("expected error for unknown store type")
	}
}

func TestFactoryRequiresRedisClient(t *testing.T) {
	if _, err := NewStore(StoreTypeRedis); err == nil {
		t.Fatal("expected error for redis store without client")
	}
}
