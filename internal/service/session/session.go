package session

import (
	"context"
	"errors"
	"time"
)

// Store is the session memory contract consumed by the orchestrator and
// the context resolver. Absent and expired sessions behave identically to
// fresh ones; no operation returns a not-found error.
type Store interface {
	// Messages returns the prior user messages for the session,
	// most-recent-last. Empty if the session is absent or expired.
	Messages(ctx context.Context, sessionID string) ([]string, error)

	// Append records a user message, truncating history to the most
	// recent MaxMessages and refreshing the session's expiry clock.
	Append(ctx context.Context, sessionID, message string) error

	// LastContext returns the most recently resolved grounding text, or
	// "" if the session is absent or expired.
	LastContext(ctx context.Context, sessionID string) (string, error)

	// SetLastContext stores resolved grounding text for follow-up reuse.
	SetLastContext(ctx context.Context, sessionID, text string) error

	// Close releases any resources held by the store.
	Close() error
}

// Data is the serializable per-session state.
type Data struct {
	Messages    []string  `json:"messages"`
	LastContext string    `json:"lastContext,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const (
	// MaxMessages bounds the retained conversation window.
	MaxMessages = 6

	// DefaultTTL is how long an idle session survives.
	DefaultTTL = 30 * time.Minute
)

var (
	ErrInvalidConfig    = errors.New("invalid session store configuration")
	ErrInvalidStoreType = errors.New("invalid session store type")
)
