package lead

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Recency buckets the time since a lead was last contacted
type Recency string

const (
	RecencyToday Recency = "today"
	RecencyWeek  Recency = "week"
	RecencyMonth Recency = "month"
	RecencyAll   Recency = "all"
)

// maxDays returns the inclusive day-delta bound of the bucket; ok is false for "all"
func (r Recency) maxDays() (int, bool) {
	switch r {
	case RecencyToday:
		return 0, true
	case RecencyWeek:
		return 7, true
	case RecencyMonth:
		return 30, true
	default:
		return 0, false
	}
}

func (r Recency) Valid() bool {
	return r == RecencyToday || r == RecencyWeek || r == RecencyMonth || r == RecencyAll
}

// BudgetRange bounds Budget.Max inclusively. An invalid Max means no upper bound.
type BudgetRange struct {
	Min decimal.Decimal     `json:"min"`
	Max decimal.NullDecimal `json:"max"`
}

func (r BudgetRange) contains(v decimal.Decimal) bool {
	if v.LessThan(r.Min) {
		return false
	}
	return !r.Max.Valid || v.LessThanOrEqual(r.Max.Decimal)
}

// PercentRange bounds ConversionProbability inclusively
type PercentRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r PercentRange) contains(v int) bool {
	f := float64(v)
	return f >= r.Min && f <= r.Max
}

// Filter is the snapshot of active criteria for a board
type Filter struct {
	Search        string       `json:"search"`
	Statuses      []Status     `json:"statuses"`
	Priorities    []Priority   `json:"priorities"`
	Locations     []string     `json:"locations"`
	PropertyTypes []string     `json:"property_types"`
	Sources       []string     `json:"sources"`
	Budget        BudgetRange  `json:"budget"`
	Conversion    PercentRange `json:"conversion"`
	LastContact   Recency      `json:"last_contact"`
	OverdueOnly   bool         `json:"overdue_only"`
	VerifiedOnly  bool         `json:"verified_only"`
}

// DefaultFilter accepts every lead
func DefaultFilter() Filter {
	return Filter{
		Statuses:      []Status{},
		Priorities:    []Priority{},
		Locations:     []string{},
		PropertyTypes: []string{},
		Sources:       []string{},
		Conversion:    PercentRange{Min: 0, Max: 100},
		LastContact:   RecencyAll,
	}
}

// FilterPatch carries a partial filter update. Nil fields keep their prior value.
type FilterPatch struct {
	Search        *string
	Statuses      *[]Status
	Priorities    *[]Priority
	Locations     *[]string
	PropertyTypes *[]string
	Sources       *[]string
	Budget        *BudgetRange
	Conversion    *PercentRange
	LastContact   *Recency
	OverdueOnly   *bool
	VerifiedOnly  *bool
}

// Merge returns a new filter with the patch applied
func (f Filter) Merge(p FilterPatch) Filter {
	out := f.clone()
	setIf(&out.Search, p.Search)
	if p.Statuses != nil {
		out.Statuses = slices.Clone(*p.Statuses)
	}
	if p.Priorities != nil {
		out.Priorities = slices.Clone(*p.Priorities)
	}
	if p.Locations != nil {
		out.Locations = slices.Clone(*p.Locations)
	}
	if p.PropertyTypes != nil {
		out.PropertyTypes = slices.Clone(*p.PropertyTypes)
	}
	if p.Sources != nil {
		out.Sources = slices.Clone(*p.Sources)
	}
	setIf(&out.Budget, p.Budget)
	setIf(&out.Conversion, p.Conversion)
	if p.LastContact != nil {
		out.LastContact = *p.LastContact
		if !out.LastContact.Valid() {
			out.LastContact = RecencyAll
		}
	}
	setIf(&out.OverdueOnly, p.OverdueOnly)
	setIf(&out.VerifiedOnly, p.VerifiedOnly)
	return out
}

func (f Filter) clone() Filter {
	out := f
	out.Statuses = slices.Clone(f.Statuses)
	out.Priorities = slices.Clone(f.Priorities)
	out.Locations = slices.Clone(f.Locations)
	out.PropertyTypes = slices.Clone(f.PropertyTypes)
	out.Sources = slices.Clone(f.Sources)
	return out
}

// Apply returns the leads matching every active criterion, in input order.
// It does not modify its inputs.
func Apply(leads []Lead, f Filter, now time.Time) []Lead {
	m := newMatcher(f, now)
	out := make([]Lead, 0, len(leads))
	for i := range leads {
		if m.match(&leads[i]) {
			out = append(out, leads[i])
		}
	}
	return out
}

// Matches reports whether a single lead passes the filter
func Matches(l Lead, f Filter, now time.Time) bool {
	return newMatcher(f, now).match(&l)
}

type matcher struct {
	f       Filter
	now     time.Time
	query   string
	maxDays int
	bounded bool
}

func newMatcher(f Filter, now time.Time) matcher {
	maxDays, bounded := f.LastContact.maxDays()
	return matcher{
		f:       f,
		now:     now,
		query:   strings.ToLower(strings.TrimSpace(f.Search)),
		maxDays: maxDays,
		bounded: bounded,
	}
}

func (m matcher) match(l *Lead) bool {
	if m.query != "" && !containsFold(l.Name, m.query) && !containsFold(l.Email, m.query) && !containsFold(l.Phone, m.query) {
		return false
	}
	if !acceptAny(m.f.Statuses, l.Status) ||
		!acceptAny(m.f.Priorities, l.Priority) ||
		!acceptAny(m.f.Locations, l.Location) ||
		!acceptAny(m.f.PropertyTypes, l.PropertyType) ||
		!acceptAny(m.f.Sources, l.Source) {
		return false
	}
	if !m.f.Budget.contains(l.Budget.Max) {
		return false
	}
	if !m.f.Conversion.contains(l.ConversionProbability) {
		return false
	}
	if m.bounded && contactDayDelta(l.LastContact, m.now) > m.maxDays {
		return false
	}
	if m.f.OverdueOnly && !l.IsOverdueAt(m.now) {
		return false
	}
	if m.f.VerifiedOnly && !l.IsVerified() {
		return false
	}
	return true
}

// acceptAny treats an empty selection as "accept all"
func acceptAny[T comparable](accepted []T, v T) bool {
	return len(accepted) == 0 || slices.Contains(accepted, v)
}

// containsFold expects query already lowercased
func containsFold(s, query string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), query)
}

// contactDayDelta is the number of whole days between last contact and now.
// A contact in the future counts as today.
func contactDayDelta(last, now time.Time) int {
	return int(math.Floor(now.Sub(last).Hours() / 24))
}

// CoerceBudgetRange turns raw user input into a usable range. Empty or
// non-numeric bounds fall back to 0 and unbounded; negative minimums are
// raised to 0 and swapped bounds are reordered.
func CoerceBudgetRange(minText, maxText string) BudgetRange {
	r := BudgetRange{Min: decimal.Zero}
	if v, ok := parseAmount(minText); ok && v.IsPositive() {
		r.Min = v
	}
	if v, ok := parseAmount(maxText); ok && !v.IsNegative() {
		r.Max = decimal.NullDecimal{Decimal: v, Valid: true}
	}
	if r.Max.Valid && r.Max.Decimal.LessThan(r.Min) {
		r.Min, r.Max.Decimal = r.Max.Decimal, r.Min
	}
	return r
}

// CoerceConversionRange clamps both bounds to [0,100]; NaN falls back to the extremes
func CoerceConversionRange(lo, hi float64) PercentRange {
	if math.IsNaN(lo) {
		lo = 0
	}
	if math.IsNaN(hi) {
		hi = 100
	}
	lo = clamp(lo, 0, 100)
	hi = clamp(hi, 0, 100)
	if hi < lo {
		lo, hi = hi, lo
	}
	return PercentRange{Min: lo, Max: hi}
}

func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
