package lead

import "slices"

// Selection is an ordered set of lead ids
type Selection struct {
	ids []string
	set map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{set: make(map[string]struct{})}
}

// Add inserts ids not yet selected and returns how many were new
func (s *Selection) Add(ids ...string) int {
	added := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.set[id]; ok {
			continue
		}
		s.set[id] = struct{}{}
		s.ids = append(s.ids, id)
		added++
	}
	return added
}

// Remove drops ids from the selection
func (s *Selection) Remove(ids ...string) {
	drop := false
	for _, id := range ids {
		if _, ok := s.set[id]; ok {
			delete(s.set, id)
			drop = true
		}
	}
	if drop {
		s.ids = slices.DeleteFunc(s.ids, func(id string) bool {
			_, kept := s.set[id]
			return !kept
		})
	}
}

// Retain keeps only ids for which keep returns true
func (s *Selection) Retain(keep func(id string) bool) {
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool {
		if keep(id) {
			return false
		}
		delete(s.set, id)
		return true
	})
}

func (s *Selection) Clear() {
	s.ids = nil
	clear(s.set)
}

func (s *Selection) Has(id string) bool {
	_, ok := s.set[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the selected ids in selection order
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}
