package explorer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velora-hq/explorer-engine/pkg/apperrors"
	"github.com/velora-hq/explorer-engine/pkg/models"
	"github.com/velora-hq/explorer-engine/pkg/querybuilder"
	"github.com/velora-hq/explorer-engine/pkg/sql"
)

// Session is one table-exploration session: a builder, the last
// committed result, and the request epoch used to discard stale
// executions. Operations on one session serialize behind mu; distinct
// sessions are independent.
type Session struct {
	ID        string
	ProjectID string

	mu         sync.Mutex
	builder    *querybuilder.Builder
	lastResult *models.ResultSet
	epoch      uint64
	lastSeen   time.Time
}

func newSession(projectID string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		builder:   querybuilder.New(),
		lastSeen:  time.Now(),
	}
}

// Apply dispatches one command to the builder. Selecting a table starts
// a new epoch: results still in flight for the previous selection are
// discarded when they try to commit.
func (s *Session) Apply(cmd querybuilder.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cmd.Op == querybuilder.OpSelectTable {
		s.epoch++
		s.lastResult = nil
	}
	s.lastSeen = time.Now()
	return cmd.Apply(s.builder)
}

// Snapshot returns a deep copy of the current spec and the epoch it was
// taken under.
func (s *Session) Snapshot() (models.QuerySpec, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()
	return *s.builder.Spec().Clone(), s.epoch
}

// CommitResult stores an execution result, unless the session has moved
// to a newer epoch since the snapshot was taken.
func (s *Session) CommitResult(rs *models.ResultSet, epoch uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return apperrors.ErrStaleResponse
	}
	s.lastResult = rs
	return nil
}

// ClearResult drops the last result. Execution failures clear result
// state rather than leaving a stale success on screen.
func (s *Session) ClearResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = nil
}

// LastResult returns the most recently committed result, or nil.
func (s *Session) LastResult() *models.ResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// View projects the session for API responses: the spec plus the SQL the
// current selection renders to (compiled, or the table preview).
func (s *Session) View() *SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec := s.builder.Spec().Clone()
	return &SessionView{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Spec:      *spec,
		SQL:       sql.Render(spec),
		Epoch:     s.epoch,
	}
}

// seen returns the session's last activity time.
func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionView is the API projection of a session.
type SessionView struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"project_id"`
	Spec      models.QuerySpec `json:"spec"`
	SQL       string           `json:"sql"`
	Epoch     uint64           `json:"epoch"`
}
