package lead

import (
	"errors"
	"sync"
	"time"
)

// Board is one agent's view of the shared pipeline: its filter, its
// selection and its drag gesture. Lead data lives in the Store; the board
// only reads copies and writes through Store methods.
type Board struct {
	mu             sync.Mutex
	store          *Store
	filter         Filter
	selection      *Selection
	gesture        Gesture
	gestureTimeout time.Duration
}

// BoardView is everything needed to render the board at one instant
type BoardView struct {
	Leads     []View         `json:"leads"`
	Stages    []StageMetrics `json:"stages"`
	Summary   Summary        `json:"summary"`
	Filter    Filter         `json:"filter"`
	Selection []string       `json:"selection"`
	Gesture   Gesture        `json:"gesture"`
}

func NewBoard(store *Store, gestureTimeout time.Duration) *Board {
	return &Board{
		store:          store,
		filter:         DefaultFilter(),
		selection:      NewSelection(),
		gesture:        IdleGesture(),
		gestureTimeout: gestureTimeout,
	}
}

func (b *Board) Filter() Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter.clone()
}

// SetFilter merges a partial update into the current filter
func (b *Board) SetFilter(p FilterPatch) Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = b.filter.Merge(p)
	return b.filter.clone()
}

func (b *Board) ResetFilter() Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = DefaultFilter()
	return b.filter.clone()
}

// Leads returns the filtered leads in store order
func (b *Board) Leads(now time.Time) []Lead {
	f := b.Filter()
	return Apply(b.store.Snapshot(), f, now)
}

// View filters, optionally sorts, and aggregates from one fresh snapshot
func (b *Board) View(now time.Time, key SortKey, desc bool) BoardView {
	b.mu.Lock()
	f := b.filter.clone()
	selected := b.selection.IDs()
	g := b.gesture
	b.mu.Unlock()

	leads := Apply(b.store.Snapshot(), f, now)
	stages := Aggregate(leads, now)
	summary := Summarize(leads, now)
	Sort(leads, key, desc)

	return BoardView{
		Leads:     NewViews(leads, now),
		Stages:    stages,
		Summary:   summary,
		Filter:    f,
		Selection: selected,
		Gesture:   g,
	}
}

// Select adds existing leads to the selection; unknown ids are ignored
func (b *Board) Select(ids ...string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		if b.store.Has(id) {
			b.selection.Add(id)
		}
	}
	return b.selection.IDs()
}

func (b *Board) Deselect(ids ...string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.Remove(ids...)
	return b.selection.IDs()
}

func (b *Board) ClearSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.Clear()
}

func (b *Board) Selected() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.IDs()
}

// Forget drops ids from the selection and aborts a drag of a removed lead
func (b *Board) Forget(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.Remove(ids...)
	for _, id := range ids {
		if b.gesture.Active() && b.gesture.LeadID == id {
			b.gesture = IdleGesture()
		}
	}
}

func (b *Board) Gesture() Gesture {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gesture
}

// StartDrag picks up a lead card. Only one lead can be in flight per board;
// a gesture older than the configured timeout is cancelled first.
func (b *Board) StartDrag(leadID string, now time.Time) (Gesture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gesture.Stale(now, b.gestureTimeout) {
		b.gesture = IdleGesture()
	}
	if b.gesture.Active() {
		return b.gesture, ErrGestureActive
	}
	l, ok := b.store.Get(leadID)
	if !ok {
		return b.gesture, ErrLeadNotFound
	}
	g, err := b.gesture.Start(l.ID, l.Status, now)
	if err != nil {
		return b.gesture, err
	}
	b.gesture = g
	return g, nil
}

// Hover highlights a stage; it never touches lead data
func (b *Board) Hover(stage Status) (Gesture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g, err := b.gesture.Hover(stage)
	if err != nil {
		return b.gesture, err
	}
	b.gesture = g
	return g, nil
}

// Drop releases the card over stage. Dropping on the lead's current stage
// is a no-op; an invalid or full stage cancels the gesture. The board is
// idle again whatever the outcome.
func (b *Board) Drop(stage Status, now time.Time) (DropOutcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	resolved, err := b.gesture.Drop(stage)
	if errors.Is(err, ErrNoGesture) {
		return DropOutcome{Phase: PhaseIdle}, err
	}
	b.gesture = IdleGesture()

	out := DropOutcome{Phase: resolved.Phase, LeadID: resolved.LeadID, From: resolved.Source, To: stage}
	if err != nil {
		return out, err
	}

	current, ok := b.store.Get(resolved.LeadID)
	if !ok {
		out.Phase = PhaseCancelled
		return out, ErrLeadNotFound
	}
	out.From = current.Status
	if current.Status == stage {
		return out, nil
	}

	m, err := b.store.Patch(current.ID, StatusPatch(stage), now)
	if err != nil {
		out.Phase = PhaseCancelled
		return out, err
	}
	out.Mutation = &m
	return out, nil
}

// CancelDrag ends any gesture without mutating anything
func (b *Board) CancelDrag() DropOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	resolved := b.gesture.Cancel()
	b.gesture = IdleGesture()
	return DropOutcome{Phase: resolved.Phase, LeadID: resolved.LeadID, From: resolved.Source}
}

// Bulk applies action to the current selection. Ids of leads that no
// longer exist are pruned first; an empty selection is a no-op.
func (b *Board) Bulk(action Action, target Status, now time.Time) (BulkResult, error) {
	if !action.Valid() {
		return BulkResult{}, ErrUnknownAction
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.selection.Retain(b.store.Has)
	res := BulkResult{Action: action, IDs: b.selection.IDs()}

	if action == ActionDeselect {
		b.selection.Clear()
		return res, nil
	}
	if res.Empty() {
		return res, nil
	}
	if action == ActionMove && !target.Valid() {
		return res, ErrMoveNeedsTarget
	}

	switch action {
	case ActionDelete:
		res.Deleted = b.store.DeleteMany(res.IDs)
		b.selection.Clear()
		if b.gesture.Active() && !b.store.Has(b.gesture.LeadID) {
			b.gesture = IdleGesture()
		}
	case ActionMove:
		mutations, err := b.store.MoveMany(res.IDs, target, now)
		if err != nil {
			return res, err
		}
		res.Mutations = mutations
	}
	return res, nil
}

// Reselect restores a selection after a failed delete was rolled back
func (b *Board) Reselect(ids []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		if b.store.Has(id) {
			b.selection.Add(id)
		}
	}
}
