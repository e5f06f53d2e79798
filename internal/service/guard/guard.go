package guard

import (
	"sync"
	"time"
)

// Config tunes the two throttling dimensions.
type Config struct {
	// Window is the fixed window length for the per-IP limiter.
	Window time.Duration
	// MaxRequestsPerWindow caps requests per IP inside one window.
	MaxRequestsPerWindow int
	// MaxMessagesPerSession caps total questions per session lifetime.
	// The counter never resets; it is cleared only when the session idles
	// past SessionTTL.
	MaxMessagesPerSession int
	// SessionTTL bounds how long an idle session counter is retained,
	// matching the session store's expiry.
	SessionTTL time.Duration
}

// DefaultConfig mirrors the production throttling constants.
func DefaultConfig() Config {
	return Config{
		Window:                time.Minute,
		MaxRequestsPerWindow:  10,
		MaxMessagesPerSession: 30,
		SessionTTL:            30 * time.Minute,
	}
}

type window struct {
	count    int
	startsAt time.Time
}

type sessionCounter struct {
	count    int
	lastSeen time.Time
}

// Guard enforces a fixed-window per-IP limit and a monotonic per-session
// message cap. The two are intentionally asymmetric: a device can start
// fresh sessions every window, but a single conversation cannot run
// forever.
type Guard struct {
	mu       sync.Mutex
	cfg      Config
	windows  map[string]*window
	sessions map[string]*sessionCounter
	now      func() time.Time
}

// New creates a Guard with the supplied configuration. Zero fields fall
// back to defaults.
func New(cfg Config) *Guard {
	defaults := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.MaxRequestsPerWindow <= 0 {
		cfg.MaxRequestsPerWindow = defaults.MaxRequestsPerWindow
	}
	if cfg.MaxMessagesPerSession <= 0 {
		cfg.MaxMessagesPerSession = defaults.MaxMessagesPerSession
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaults.SessionTTL
	}

	return &Guard{
		cfg:      cfg,
		windows:  make(map[string]*window),
		sessions: make(map[string]*sessionCounter),
		now:      time.Now,
	}
}

// AllowIP consumes one request slot for the client IP. A new window opens
// exactly Window after the first request of the current one. Denials do
// not consume.
func (g *Guard) AllowIP(ip string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	w, ok := g.windows[ip]
	if !ok || now.Sub(w.startsAt) >= g.cfg.Window {
		g.windows[ip] = &window{count: 1, startsAt: now}
		return true
	}

	if w.count >= g.cfg.MaxRequestsPerWindow {
		return false
	}
	w.count++
	return true
}

// AllowSession consumes one message slot for the session. The counter is
// monotonic; once the cap is reached the session stays denied until its
// counter expires with the session TTL.
func (g *Guard) AllowSession(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	c, ok := g.sessions[sessionID]
	if !ok || now.Sub(c.lastSeen) > g.cfg.SessionTTL {
		g.sessions[sessionID] = &sessionCounter{count: 1, lastSeen: now}
		return true
	}

	if c.count >= g.cfg.MaxMessagesPerSession {
		// Denials leave lastSeen alone so the counter expires on the
		// same clock as the session it throttles.
		return false
	}
	c.count++
	c.lastSeen = now
	return true
}

// Sweep drops idle windows and expired session counters, bounding memory
// for keys that never return. Returns the number of evicted entries.
func (g *Guard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	evicted := 0
	for ip, w := range g.windows {
		if now.Sub(w.startsAt) >= g.cfg.Window {
			delete(g.windows, ip)
			evicted++
		}
	}
	for id, c := range g.sessions {
		if now.Sub(c.lastSeen) > g.cfg.SessionTTL {
			delete(g.sessions, id)
			evicted++
		}
	}
	return evicted
}
