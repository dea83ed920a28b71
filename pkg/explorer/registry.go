package explorer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/apperrors"
	"github.com/velora-hq/explorer-engine/pkg/metrics"
)

// DefaultSessionTTL is how long an idle session survives before the
// sweeper reclaims it.
const DefaultSessionTTL = time.Hour

// SessionRegistry stores explorer sessions in memory. Nothing is
// persisted; a restart forgets all sessions.
type SessionRegistry interface {
	// Create registers a fresh session for the project.
	Create(projectID string) *Session
	// Get returns a live session by ID.
	Get(id string) (*Session, error)
	// Delete removes a session if present.
	Delete(id string)
	// Sweep removes sessions idle past the TTL and returns how many.
	Sweep() int
	// StartSweeper runs Sweep on an interval until ctx is done.
	StartSweeper(ctx context.Context, interval time.Duration)
}

type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSessionRegistry creates an in-memory session registry. A zero TTL
// selects the default.
func NewSessionRegistry(ttl time.Duration, logger *zap.Logger) SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionRegistry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger.Named("sessions"),
	}
}

func (r *sessionRegistry) Create(projectID string) *Session {
	session := newSession(projectID)

	r.mu.Lock()
	r.sessions[session.ID] = session
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(size))
	r.logger.Debug("created explorer session",
		zap.String("session_id", session.ID),
		zap.String("project_id", projectID))
	return session
}

func (r *sessionRegistry) Get(id string) (*Session, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

func (r *sessionRegistry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(size))
}

func (r *sessionRegistry) Sweep() int {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []string
	for id, session := range r.sessions {
		if session.seen().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(r.sessions, id)
	}
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(size))
	if len(expired) > 0 {
		r.logger.Info("swept idle explorer sessions",
			zap.Int("swept", len(expired)),
			zap.Int("remaining", size))
	}
	return len(expired)
}

func (r *sessionRegistry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// Ensure sessionRegistry implements SessionRegistry at compile time.
var _ SessionRegistry = (*sessionRegistry)(nil)
