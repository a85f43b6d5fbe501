package lead

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StageLimits caps how many leads a stage may hold. Missing or zero means unlimited.
type StageLimits map[Status]int

// ParseStageLimits reads "viewing=50,qualified=20"
func ParseStageLimits(s string) (StageLimits, error) {
	limits := StageLimits{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("stage limit %q: expected stage=count", part)
		}
		stage := Status(strings.ToLower(strings.TrimSpace(name)))
		if !stage.Valid() {
			return nil, fmt.Errorf("stage limit %q: %w", part, ErrInvalidStatus)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("stage limit %q: count must be a non-negative integer", part)
		}
		limits[stage] = n
	}
	return limits, nil
}

func (sl StageLimits) allows(stage Status, count int) bool {
	limit, ok := sl[stage]
	return !ok || limit == 0 || count <= limit
}

// Mutation records a single applied patch so it can be persisted or reverted
type Mutation struct {
	LeadID string `json:"lead_id"`
	Patch  Patch  `json:"-"`
	Before Lead   `json:"-"`
	After  Lead   `json:"lead"`

	version uint64
}

// Removed is a deleted lead together with its position in the store
type Removed struct {
	Lead    Lead
	seq     uint64
	version uint64
}

type record struct {
	lead    Lead
	seq     uint64
	version uint64
}

// Store is the in-memory lead collection. All writes go through its methods;
// readers only ever receive copies.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*record
	order  []*record
	next   uint64
	limits StageLimits
}

func NewStore(limits StageLimits) *Store {
	if limits == nil {
		limits = StageLimits{}
	}
	return &Store{
		byID:   make(map[string]*record),
		limits: limits,
	}
}

// Replace swaps the whole collection, keeping the given order
func (s *Store) Replace(leads []Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]*record, len(leads))
	s.order = make([]*record, 0, len(leads))
	s.next = 0
	for _, l := range leads {
		if _, dup := s.byID[l.ID]; dup {
			continue
		}
		s.appendLocked(l.Clone())
	}
}

// Insert adds a new lead at the end of the collection
func (s *Store) Insert(l Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[l.ID]; exists {
		return ErrLeadExists
	}
	if !s.limits.allows(l.Status, s.countLocked(l.Status)+1) {
		return ErrStageFull
	}
	s.appendLocked(l.Clone())
	return nil
}

func (s *Store) Get(id string) (Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return Lead{}, false
	}
	return r.lead.Clone(), true
}

func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Snapshot returns copies of all leads in store order
func (s *Store) Snapshot() []Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Lead, len(s.order))
	for i, r := range s.order {
		out[i] = r.lead.Clone()
	}
	return out
}

// Count returns how many leads sit in a stage
func (s *Store) Count(stage Status) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(stage)
}

// Patch applies p to one lead. A stage change is refused when the target stage is full.
func (s *Store) Patch(id string, p Patch, now time.Time) (Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return Mutation{}, ErrLeadNotFound
	}
	after, err := p.ApplyTo(r.lead, now)
	if err != nil {
		return Mutation{}, err
	}
	if after.Status != r.lead.Status && !s.limits.allows(after.Status, s.countLocked(after.Status)+1) {
		return Mutation{}, ErrStageFull
	}

	r.version++
	m := Mutation{LeadID: id, Patch: p, Before: r.lead.Clone(), After: after.Clone(), version: r.version}
	r.lead = after
	return m, nil
}

// MoveMany moves every listed lead to stage. Either all move or none do.
// Leads already in the stage are skipped and produce no mutation.
func (s *Store) MoveMany(ids []string, stage Status, now time.Time) ([]Mutation, error) {
	if !stage.Valid() {
		return nil, ErrInvalidTarget
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	moving := make([]*record, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		r, ok := s.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if r.lead.Status != stage {
			moving = append(moving, r)
		}
	}
	if len(moving) == 0 {
		return nil, nil
	}
	if !s.limits.allows(stage, s.countLocked(stage)+len(moving)) {
		return nil, ErrStageFull
	}

	p := StatusPatch(stage)
	mutations := make([]Mutation, 0, len(moving))
	for _, r := range moving {
		after, err := p.ApplyTo(r.lead, now)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, Mutation{LeadID: r.lead.ID, Patch: p, Before: r.lead.Clone(), After: after})
	}
	for i, r := range moving {
		r.version++
		mutations[i].version = r.version
		r.lead = mutations[i].After.Clone()
	}
	return mutations, nil
}

// Revert puts the pre-mutation state back. It refuses when the lead is gone
// or another write has landed on it since m, and reports whether it reverted.
func (s *Store) Revert(m Mutation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[m.LeadID]
	if !ok || r.version != m.version {
		return false
	}
	r.version++
	r.lead = m.Before.Clone()
	return true
}

// Delete removes one lead
func (s *Store) Delete(id string) (Removed, error) {
	removed := s.DeleteMany([]string{id})
	if len(removed) == 0 {
		return Removed{}, ErrLeadNotFound
	}
	return removed[0], nil
}

// DeleteMany removes every listed lead that exists and returns what was removed
func (s *Store) DeleteMany(ids []string) []Removed {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	removed := make([]Removed, 0, len(ids))
	for _, id := range ids {
		r, ok := s.byID[id]
		if !ok {
			continue
		}
		if _, seen := drop[id]; seen {
			continue
		}
		drop[id] = struct{}{}
		removed = append(removed, Removed{Lead: r.lead.Clone(), seq: r.seq, version: r.version})
		delete(s.byID, id)
	}
	if len(removed) > 0 {
		s.order = slices.DeleteFunc(s.order, func(r *record) bool {
			_, gone := drop[r.lead.ID]
			return gone
		})
	}
	return removed
}

// Restore puts deleted leads back at their original positions
func (s *Store) Restore(removed []Removed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rm := range removed {
		if _, exists := s.byID[rm.Lead.ID]; exists {
			continue
		}
		r := &record{lead: rm.Lead.Clone(), seq: rm.seq, version: rm.version + 1}
		i, _ := slices.BinarySearchFunc(s.order, rm.seq, func(e *record, seq uint64) int {
			switch {
			case e.seq < seq:
				return -1
			case e.seq > seq:
				return 1
			}
			return 0
		})
		s.order = slices.Insert(s.order, i, r)
		s.byID[r.lead.ID] = r
	}
}

func (s *Store) appendLocked(l Lead) {
	r := &record{lead: l, seq: s.next}
	s.next++
	s.byID[l.ID] = r
	s.order = append(s.order, r)
}

func (s *Store) countLocked(stage Status) int {
	n := 0
	for _, r := range s.order {
		if r.lead.Status == stage {
			n++
		}
	}
	return n
}
