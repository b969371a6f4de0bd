package service

import (
	"sort"
	"sync"

	"datafill/internal/etl"
)

// Session holds the imported datasets and their field schemas between an
// import and the commits that follow it. Each tab keeps its own dataset and
// schema; the active tab supplies both for the next commit. A tab imported
// for the first time reconciles against the restored schema.
type Session struct {
	mu       sync.Mutex
	datasets map[int]etl.Collection
	schemas  map[int]*etl.Schema
	restored *etl.Schema
	active   int
}

func newSession(restored *etl.Schema) *Session {
	return &Session{
		datasets: make(map[int]etl.Collection),
		schemas:  make(map[int]*etl.Schema),
		restored: restored,
	}
}

// schemaLocked returns the active tab's schema, falling back to the
// restored one for a tab that has not been imported into.
func (s *Session) schemaLocked() *etl.Schema {
	if sc, ok := s.schemas[s.active]; ok {
		return sc
	}
	return s.restored
}

// ActiveTab returns the tab whose dataset is used by commits.
func (s *Session) ActiveTab() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActiveTab switches the active tab. A tab with no dataset yet is valid;
// the next import fills it.
func (s *Session) SetActiveTab(tab int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = tab
}

// Tabs lists the tabs that hold a dataset, ascending.
func (s *Session) Tabs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	tabs := make([]int, 0, len(s.datasets))
	for t := range s.datasets {
		tabs = append(tabs, t)
	}
	sort.Ints(tabs)
	return tabs
}

// Records returns a copy of the active tab's dataset.
func (s *Session) Records() etl.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasets[s.active].Clone()
}

// Schema returns a copy of the active tab's field schema, or nil before the
// first import when nothing was restored.
func (s *Session) Schema() *etl.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.schemaLocked()
	if sc == nil {
		return nil
	}
	return sc.Clone()
}

// snapshot returns the active tab's records and schema taken together.
func (s *Session) snapshot() (etl.Collection, *etl.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasets[s.active].Clone(), s.schemaLocked().Clone()
}

// accept stores c as tab's dataset and folds the schema inferred from it
// into that tab's schema. It reports whether the previous one was replaced.
func (s *Session) accept(tab int, c etl.Collection) (*etl.Schema, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = tab
	base, ok := s.schemas[tab]
	if !ok {
		base = s.restored
	}
	schema, replaced := etl.Reconcile(base.Clone(), etl.InferSchema(c))
	s.datasets[tab] = c
	s.schemas[tab] = schema
	return schema.Clone(), replaced
}

func (s *Session) updateField(key string, fn func(*etl.Field)) (*etl.Schema, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.schemas[s.active]
	if !ok {
		if s.restored == nil {
			return nil, false
		}
		schema = s.restored.Clone()
	}
	f, ok := schema.Field(key)
	if !ok {
		return nil, false
	}
	fn(f)
	s.schemas[s.active] = schema
	return schema.Clone(), true
}
