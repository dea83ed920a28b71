// Package explorer orchestrates the engine: per-project catalog state,
// in-memory explorer sessions, command dispatch, and the
// compile-guard-execute-map pipeline.
package explorer

import (
	"sync"
	"time"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

// CatalogState tracks the lifecycle of a project's catalog load. A load
// requested while another is in flight is suppressed rather than
// duplicated; suppression is advisory and never cancels the outstanding
// request.
type CatalogState string

const (
	CatalogStateIdle    CatalogState = "idle"
	CatalogStateLoading CatalogState = "loading"
	CatalogStateLoaded  CatalogState = "loaded"
	CatalogStateFailed  CatalogState = "failed"
)

// CatalogView is the externally visible catalog state of one project.
type CatalogView struct {
	State     CatalogState             `json:"state"`
	Error     string                   `json:"error,omitempty"`
	Hierarchy *models.CatalogHierarchy `json:"hierarchy,omitempty"`
	LoadedAt  *time.Time               `json:"loaded_at,omitempty"`
}

// catalogEntry holds one project's catalog and its load state.
type catalogEntry struct {
	state     CatalogState
	tables    []models.TableDescriptor
	hierarchy models.CatalogHierarchy
	loadErr   string
	loadedAt  time.Time
}

// catalogStore tracks per-project catalog state. State transitions are
// explicit begin/complete/fail calls so duplicate-load suppression is
// visible rather than a side effect.
type catalogStore struct {
	mu      sync.Mutex
	entries map[string]*catalogEntry
}

func newCatalogStore() *catalogStore {
	return &catalogStore{entries: make(map[string]*catalogEntry)}
}

// entry returns the project's entry, creating an Idle one on first
// access. Callers must hold the lock.
func (s *catalogStore) entry(projectID string) *catalogEntry {
	entry, ok := s.entries[projectID]
	if !ok {
		entry = &catalogEntry{state: CatalogStateIdle}
		s.entries[projectID] = entry
	}
	return entry
}

// begin moves a project to Loading. Returns false when a load is already
// in flight, leaving the entry untouched.
func (s *catalogStore) begin(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(projectID)
	if entry.state == CatalogStateLoading {
		return false
	}
	entry.state = CatalogStateLoading
	return true
}

// complete replaces the project's catalog wholesale with a successful
// load.
func (s *catalogStore) complete(projectID string, tables []models.TableDescriptor, hierarchy models.CatalogHierarchy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(projectID)
	entry.state = CatalogStateLoaded
	entry.tables = tables
	entry.hierarchy = hierarchy
	entry.loadErr = ""
	entry.loadedAt = time.Now()
}

// fail records a failed load and its display message. A previously
// loaded catalog is discarded; the failure is what the user sees.
func (s *catalogStore) fail(projectID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(projectID)
	entry.state = CatalogStateFailed
	entry.tables = nil
	entry.hierarchy = models.CatalogHierarchy{}
	entry.loadErr = message
}

// state returns the project's current load state.
func (s *catalogStore) state(projectID string) CatalogState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(projectID).state
}

// view snapshots the externally visible state of a project's catalog.
func (s *catalogStore) view(projectID string) *CatalogView {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(projectID)
	view := &CatalogView{State: entry.state, Error: entry.loadErr}
	if entry.state == CatalogStateLoaded {
		hierarchy := entry.hierarchy
		loadedAt := entry.loadedAt
		view.Hierarchy = &hierarchy
		view.LoadedAt = &loadedAt
	}
	return view
}

// tableList returns the normalized descriptors of a loaded project.
// Descriptors are created once per load and read-only thereafter, so the
// shared slice is safe to hand out.
func (s *catalogStore) tableList(projectID string) []models.TableDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(projectID).tables
}

// resolve finds a table descriptor by qualified name.
func (s *catalogStore) resolve(projectID, qualifiedName string) (models.TableDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range s.entry(projectID).tables {
		if table.QualifiedName == qualifiedName {
			return table, true
		}
	}
	return models.TableDescriptor{}, false
}
