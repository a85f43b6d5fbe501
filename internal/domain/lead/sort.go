package lead

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey names a lead ordering offered to the board
type SortKey string

const (
	SortByScore       SortKey = "score"
	SortByBudget      SortKey = "budget"
	SortByLastContact SortKey = "last_contact"
	SortByName        SortKey = "name"
	SortByProbability SortKey = "probability"
	SortByCreated     SortKey = "created"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByScore, SortByBudget, SortByLastContact, SortByName, SortByProbability, SortByCreated:
		return true
	}
	return false
}

// Sort orders leads in place, keeping input order among equal keys.
// Unknown keys leave the slice untouched.
func Sort(leads []Lead, key SortKey, desc bool) {
	compare := comparator(key)
	if compare == nil {
		return
	}
	slices.SortStableFunc(leads, func(a, b Lead) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func comparator(key SortKey) func(a, b Lead) int {
	switch key {
	case SortByScore:
		return func(a, b Lead) int { return cmp.Compare(a.LeadScore, b.LeadScore) }
	case SortByBudget:
		return func(a, b Lead) int { return a.Budget.Max.Cmp(b.Budget.Max) }
	case SortByLastContact:
		return func(a, b Lead) int { return a.LastContact.Compare(b.LastContact) }
	case SortByName:
		return func(a, b Lead) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case SortByProbability:
		return func(a, b Lead) int { return cmp.Compare(a.ConversionProbability, b.ConversionProbability) }
	case SortByCreated:
		return func(a, b Lead) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
	return nil
}
