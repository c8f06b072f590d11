package session

import (
	"context"
	"sync"
	"time"

	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/geo"
)

// Router computes a route between two points.
type Router interface {
	Route(ctx context.Context, from, to geo.Point) (geo.RouteResult, error)
}

// Session is the per-user planner and tracking context. Every exported method
// is safe for concurrent use.
type Session struct {
	UserID domain.ID

	mu           sync.Mutex
	router       Router
	hub          *Hub
	now          func() time.Time
	routeTimeout time.Duration
	inflight     sync.WaitGroup
	lastSeen     time.Time

	start       *geo.Point
	destination *geo.Point
	viewport    geo.Viewport

	generation uint64
	route      *routeControl

	selected *models.Trip
	tracking tracking
}

func newSession(userID domain.ID, router Router, now func() time.Time, routeTimeout time.Duration) *Session {
	return &Session{
		UserID:       userID,
		router:       router,
		hub:          NewHub(),
		now:          now,
		routeTimeout: routeTimeout,
		lastSeen:     now(),
	}
}

// Events returns the hub session changes are published on.
func (s *Session) Events() *Hub {
	return s.hub
}

// Wait blocks until every in-flight route request has been applied or discarded.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) publishLocked(typ string, data any) {
	s.hub.Publish(Event{Type: typ, Data: data, At: s.now()})
}

func (s *Session) touchLocked() {
	s.lastSeen = s.now()
}

// Snapshot is the client-visible state of a session.
type Snapshot struct {
	Start       *geo.Point    `json:"start,omitempty"`
	Destination *geo.Point    `json:"destination,omitempty"`
	Viewport    *geo.Viewport `json:"viewport,omitempty"`
	Route       *RouteView    `json:"route,omitempty"`
	Tracking    TrackingView  `json:"tracking"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Start:       clonePoint(s.start),
		Destination: clonePoint(s.destination),
		Tracking:    s.tracking.view(s.selected),
	}
	if !s.viewport.IsZero() {
		v := s.viewport
		snap.Viewport = &v
	}
	if s.route != nil {
		rv := s.route.view()
		snap.Route = &rv
	}
	return snap
}

func clonePoint(p *geo.Point) *geo.Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Manager owns one Session per user.
type Manager struct {
	router       Router
	now          func() time.Time
	ttl          time.Duration
	routeTimeout time.Duration
	onDrop       func(domain.ID)

	mu       sync.Mutex
	sessions map[domain.ID]*Session
}

type Option func(*Manager)

// WithClock overrides time.Now, for ETA and expiry calculations.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTTL sets how long an untouched session is kept.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithRouteTimeout bounds each upstream route request.
func WithRouteTimeout(d time.Duration) Option {
	return func(m *Manager) { m.routeTimeout = d }
}

// WithOnDrop registers fn to run after a session is dropped or swept.
func WithOnDrop(fn func(domain.ID)) Option {
	return func(m *Manager) { m.onDrop = fn }
}

func NewManager(router Router, opts ...Option) *Manager {
	m := &Manager{
		router:       router,
		now:          time.Now,
		ttl:          24 * time.Hour,
		routeTimeout: 15 * time.Second,
		sessions:     map[domain.ID]*Session{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the user's session, creating it on first use.
func (m *Manager) Get(userID domain.ID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		s = newSession(userID, m.router, m.now, m.routeTimeout)
		m.sessions[userID] = s
	}
	return s
}

// Drop tears down and forgets the user's session (logout).
func (m *Manager) Drop(userID domain.ID) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.close()
	}
	if m.onDrop != nil {
		m.onDrop(userID)
	}
}

// Sweep drops sessions idle for longer than the TTL and returns how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
		if m.onDrop != nil {
			m.onDrop(s.UserID)
		}
	}
	return len(stale)
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (s *Session) close() {
	s.mu.Lock()
	s.stopLocked()
	s.clearRouteLocked()
	s.start, s.destination = nil, nil
	s.mu.Unlock()
	s.hub.Close()
}
