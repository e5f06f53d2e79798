package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// memoryStore keeps sessions in a mutex-guarded map. Expiry is lazy: an
// expired session found on read is deleted there and then. Sweep exists
// only to bound memory for sessions that are never read again.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Data
	ttl      time.Duration
	now      func() time.Time
}

func (s *memoryStore) Messages(_ context.Context, sessionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.live(sessionID)
	if data == nil {
		return nil, nil
	}
	copied := make([]string, len(data.Messages))
	copy(copied, data.Messages)
	return copied, nil
}

func (s *memoryStore) Append(_ context.Context, sessionID, message string) error {
	if message == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.live(sessionID)
	if data == nil {
		data = &Data{}
		s.sessions[sessionID] = data
	}

	data.Messages = append(data.Messages, message)
	if len(data.Messages) > MaxMessages {
		data.Messages = data.Messages[len(data.Messages)-MaxMessages:]
	}
	data.UpdatedAt = s.now()
	return nil
}

func (s *memoryStore) LastContext(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.live(sessionID)
	if data == nil {
		return "", nil
	}
	return data.LastContext, nil
}

func (s *memoryStore) SetLastContext(_ context.Context, sessionID, text string) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.live(sessionID)
	if data == nil {
		data = &Data{}
		s.sessions[sessionID] = data
	}
	data.LastContext = text
	data.UpdatedAt = s.now()
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Data)
	return nil
}

// live returns the session for id, deleting and hiding it if expired.
// Caller must hold s.mu.
func (s *memoryStore) live(sessionID string) *Data {
	data, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if s.now().Sub(data.UpdatedAt) > s.ttl {
		delete(s.sessions, sessionID)
		return nil
	}
	return data
}

// Sweep removes every expired session and returns how many were evicted.
func (s *memoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for id, data := range s.sessions {
		if now.Sub(data.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Sweeper is implemented by stores that support periodic expiry sweeps.
type Sweeper interface {
	Sweep() int
}

// RunSweeper periodically sweeps the store until ctx is cancelled. No-op
// for stores without a Sweep method (redis expires keys itself).
func RunSweeper(ctx context.Context, store Store, interval time.Duration) {
	sweeper, ok := store.(Sweeper)
	if !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sweeper.Sweep(); n > 0 {
				log.Printf("[session] swept %d expired sessions", n)
			}
		}
	}
}
