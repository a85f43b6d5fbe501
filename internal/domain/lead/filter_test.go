package lead

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestLead(id string, status Status, budgetMax int64) Lead {
	return Lead{
		ID:             id,
		Name:           "Lead " + id,
		Email:          "lead" + id + "@example.com",
		Phone:          "+263 77 000 00" + id,
		Priority:       PriorityMedium,
		Status:         status,
		KYCStatus:      KYCPending,
		Budget:         Budget{Min: decimal.Zero, Max: decimal.NewFromInt(budgetMax), Currency: "USD"},
		LastContact:    testNow.Add(-2 * 24 * time.Hour),
		StageEnteredAt: testNow.Add(-4 * 24 * time.Hour),
		CreatedAt:      testNow.Add(-10 * 24 * time.Hour),
		Tags:           []string{},
	}
}

func ids(leads []Lead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.ID
	}
	return out
}

func sampleLeads() []Lead {
	a := newTestLead("1", StatusNew, 900000)
	a.Name = "Tendai Moyo"
	a.Priority = PriorityHigh
	a.Location = "Harare"
	a.PropertyType = "house"
	a.Source = "website"
	a.ConversionProbability = 80

	b := newTestLead("2", StatusContacted, 1200000)
	b.Name = "Rudo Chikore"
	b.Email = "rudo@mukamba.co.zw"
	b.Location = "Bulawayo"
	b.PropertyType = "apartment"
	b.Source = "referral"
	b.ConversionProbability = 40
	b.IsPhoneVerified = true
	b.IsEmailVerified = true

	c := newTestLead("3", StatusViewing, 450000)
	c.Name = "Farai Ncube"
	c.Priority = PriorityLow
	c.Location = "Harare"
	c.PropertyType = "land"
	c.Source = "website"
	c.ConversionProbability = 75
	c.LastContact = testNow.Add(-20 * 24 * time.Hour)
	past := testNow.Add(-time.Hour)
	c.NextFollowUp = &past

	d := newTestLead("4", StatusNew, 2000000)
	d.Name = "Nyasha Dube"
	d.Location = "Mutare"
	d.PropertyType = "house"
	d.Source = "walk-in"
	d.ConversionProbability = 10
	d.LastContact = testNow.Add(-45 * 24 * time.Hour)

	return []Lead{a, b, c, d}
}

func TestApply_ExampleScenario(t *testing.T) {
	leads := []Lead{
		newTestLead("1", StatusNew, 900000),
		newTestLead("2", StatusContacted, 1200000),
	}
	f := DefaultFilter().Merge(FilterPatch{
		Statuses: &[]Status{StatusNew},
		Budget:   &BudgetRange{Min: decimal.Zero, Max: decimal.NewNullDecimal(decimal.NewFromInt(1000000))},
	})

	got := Apply(leads, f, testNow)

	assert.Equal(t, []string{"1"}, ids(got))
}

func TestApply_EmptyFilterIsIdentity(t *testing.T) {
	leads := sampleLeads()

	got := Apply(leads, DefaultFilter(), testNow)

	if diff := cmp.Diff(leads, got); diff != "" {
		t.Fatalf("default filter changed the collection (-want +got):\n%s", diff)
	}
}

func TestApply_Idempotent(t *testing.T) {
	leads := sampleLeads()
	f := DefaultFilter().Merge(FilterPatch{
		Locations: &[]string{"Harare", "Bulawayo"},
		Search:    ptr("a"),
	})

	first := Apply(leads, f, testNow)
	second := Apply(leads, f, testNow)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("filter is not idempotent (-first +second):\n%s", diff)
	}
	assert.Equal(t, first, Apply(first, f, testNow))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	leads := sampleLeads()
	before := make([]Lead, len(leads))
	for i := range leads {
		before[i] = leads[i].Clone()
	}

	Apply(leads, DefaultFilter().Merge(FilterPatch{Statuses: &[]Status{StatusLost}}), testNow)

	assert.Empty(t, cmp.Diff(before, leads))
}

func TestApply_Dimensions(t *testing.T) {
	cases := []struct {
		name  string
		patch FilterPatch
		want  []string
	}{
		{"search by name is case-insensitive", FilterPatch{Search: ptr("TENDAI")}, []string{"1"}},
		{"search by email", FilterPatch{Search: ptr("mukamba.co")}, []string{"2"}},
		{"search by phone", FilterPatch{Search: ptr("00 004")}, []string{"4"}},
		{"status is OR within the set", FilterPatch{Statuses: &[]Status{StatusNew, StatusViewing}}, []string{"1", "3", "4"}},
		{"priority", FilterPatch{Priorities: &[]Priority{PriorityHigh, PriorityLow}}, []string{"1", "3"}},
		{"location", FilterPatch{Locations: &[]string{"Harare"}}, []string{"1", "3"}},
		{"property type", FilterPatch{PropertyTypes: &[]string{"house"}}, []string{"1", "4"}},
		{"lead source", FilterPatch{Sources: &[]string{"referral", "walk-in"}}, []string{"2", "4"}},
		{"budget compares max inclusive", FilterPatch{Budget: &BudgetRange{Min: decimal.NewFromInt(900000), Max: decimal.NewNullDecimal(decimal.NewFromInt(1200000))}}, []string{"1", "2"}},
		{"budget with open upper bound", FilterPatch{Budget: &BudgetRange{Min: decimal.NewFromInt(1000000)}}, []string{"2", "4"}},
		{"conversion range", FilterPatch{Conversion: &PercentRange{Min: 70, Max: 100}}, []string{"1", "3"}},
		{"contacted this week", FilterPatch{LastContact: recency(RecencyWeek)}, []string{"1", "2"}},
		{"contacted this month", FilterPatch{LastContact: recency(RecencyMonth)}, []string{"1", "2", "3"}},
		{"contacted today", FilterPatch{LastContact: recency(RecencyToday)}, []string{}},
		{"overdue only", FilterPatch{OverdueOnly: ptr(true)}, []string{"3"}},
		{"verified only", FilterPatch{VerifiedOnly: ptr(true)}, []string{"2"}},
		{"dimensions combine with AND", FilterPatch{Locations: &[]string{"Harare"}, Statuses: &[]Status{StatusNew}}, []string{"1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(sampleLeads(), DefaultFilter().Merge(tc.patch), testNow)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApply_TodayIncludesFutureAndSameDayContact(t *testing.T) {
	l1 := newTestLead("1", StatusNew, 1)
	l1.LastContact = testNow.Add(-3 * time.Hour)
	l2 := newTestLead("2", StatusNew, 1)
	l2.LastContact = testNow.Add(time.Hour)
	l3 := newTestLead("3", StatusNew, 1)
	l3.LastContact = testNow.Add(-25 * time.Hour)

	got := Apply([]Lead{l1, l2, l3}, DefaultFilter().Merge(FilterPatch{LastContact: recency(RecencyToday)}), testNow)

	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestApply_OverdueIsDerivedAtQueryTime(t *testing.T) {
	l := newTestLead("1", StatusNew, 1)
	followUp := testNow.Add(2 * time.Hour)
	l.NextFollowUp = &followUp
	f := DefaultFilter().Merge(FilterPatch{OverdueOnly: ptr(true)})

	assert.Empty(t, Apply([]Lead{l}, f, testNow))
	assert.False(t, NewView(l, testNow).IsOverdue)

	later := testNow.Add(3 * time.Hour)
	assert.Len(t, Apply([]Lead{l}, f, later), 1)
	assert.True(t, NewView(l, later).IsOverdue)
}

func TestFilterMerge_KeepsUnspecifiedFields(t *testing.T) {
	f := DefaultFilter().Merge(FilterPatch{
		Search:   ptr("moyo"),
		Statuses: &[]Status{StatusNew},
	})

	f = f.Merge(FilterPatch{OverdueOnly: ptr(true)})

	assert.Equal(t, "moyo", f.Search)
	assert.Equal(t, []Status{StatusNew}, f.Statuses)
	assert.True(t, f.OverdueOnly)
	assert.Equal(t, RecencyAll, f.LastContact)

	f = f.Merge(FilterPatch{Statuses: &[]Status{}, LastContact: recency("fortnight")})
	assert.Empty(t, f.Statuses)
	assert.Equal(t, RecencyAll, f.LastContact)
}

func TestFilterMerge_DoesNotAliasPatchSlices(t *testing.T) {
	statuses := []Status{StatusNew}
	f := DefaultFilter().Merge(FilterPatch{Statuses: &statuses})

	statuses[0] = StatusLost

	assert.Equal(t, []Status{StatusNew}, f.Statuses)
}

func TestCoerceBudgetRange(t *testing.T) {
	cases := []struct {
		name     string
		min, max string
		wantMin  string
		wantMax  string
		bounded  bool
	}{
		{"empty input is unfiltered", "", "", "0", "", false},
		{"non-numeric falls back", "abc", "lots", "0", "", false},
		{"negative minimum raised to zero", "-5", "100", "0", "100", true},
		{"thousands separators", "1,000", "250,000", "1000", "250000", true},
		{"swapped bounds reordered", "500", "100", "100", "500", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := CoerceBudgetRange(tc.min, tc.max)
			assert.Equal(t, tc.wantMin, r.Min.String())
			assert.Equal(t, tc.bounded, r.Max.Valid)
			if tc.bounded {
				assert.Equal(t, tc.wantMax, r.Max.Decimal.String())
			}
		})
	}
}

func TestCoerceConversionRange(t *testing.T) {
	assert.Equal(t, PercentRange{Min: 0, Max: 100}, CoerceConversionRange(math.NaN(), math.NaN()))
	assert.Equal(t, PercentRange{Min: 0, Max: 100}, CoerceConversionRange(-20, 400))
	assert.Equal(t, PercentRange{Min: 30, Max: 60}, CoerceConversionRange(60, 30))
}

func TestSort(t *testing.T) {
	leads := sampleLeads()

	Sort(leads, SortByBudget, true)
	assert.Equal(t, []string{"4", "2", "1", "3"}, ids(leads))

	Sort(leads, SortByName, false)
	assert.Equal(t, []string{"3", "4", "2", "1"}, ids(leads))

	before := ids(leads)
	Sort(leads, SortKey("unknown"), false)
	require.Equal(t, before, ids(leads))
}

func ptr[T any](v T) *T {
	return &v
}

func recency(r Recency) *Recency {
	return &r
}
