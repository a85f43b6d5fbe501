package lead

import "time"

// Phase is the state of a drag gesture on the board
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseDragging  Phase = "dragging"
	PhaseHovering  Phase = "hovering"
	PhaseDropped   Phase = "dropped"
	PhaseCancelled Phase = "cancelled"
)

// Gesture is one drag of a lead card between stages. Dropped and cancelled
// are terminal: the board reports them and returns to idle straight away.
type Gesture struct {
	Phase     Phase     `json:"phase"`
	LeadID    string    `json:"lead_id,omitempty"`
	Source    Status    `json:"source,omitempty"`
	Target    Status    `json:"target,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

func IdleGesture() Gesture {
	return Gesture{Phase: PhaseIdle}
}

// Active reports whether a lead is mid-drag
func (g Gesture) Active() bool {
	return g.Phase == PhaseDragging || g.Phase == PhaseHovering
}

// Stale reports whether an active gesture outlived timeout. A zero timeout never expires.
func (g Gesture) Stale(now time.Time, timeout time.Duration) bool {
	return g.Active() && timeout > 0 && now.Sub(g.StartedAt) > timeout
}

// Start begins dragging a lead out of its current stage
func (g Gesture) Start(leadID string, source Status, now time.Time) (Gesture, error) {
	if g.Active() {
		return g, ErrGestureActive
	}
	return Gesture{Phase: PhaseDragging, LeadID: leadID, Source: source, StartedAt: now}, nil
}

// Hover moves the pointer over a stage. Over the source stage the gesture
// is plain dragging again; over any other valid stage it is hovering.
func (g Gesture) Hover(stage Status) (Gesture, error) {
	if !g.Active() {
		return g, ErrNoGesture
	}
	if !stage.Valid() {
		return g, ErrInvalidTarget
	}
	next := g
	if stage == g.Source {
		next.Phase = PhaseDragging
		next.Target = ""
		return next, nil
	}
	next.Phase = PhaseHovering
	next.Target = stage
	return next, nil
}

// Drop resolves the gesture over stage
func (g Gesture) Drop(stage Status) (Gesture, error) {
	if !g.Active() {
		return g, ErrNoGesture
	}
	next := g
	next.Target = stage
	if !stage.Valid() {
		next.Phase = PhaseCancelled
		return next, ErrInvalidTarget
	}
	next.Phase = PhaseDropped
	return next, nil
}

// Cancel ends the gesture without a drop. It is safe from any phase.
func (g Gesture) Cancel() Gesture {
	next := g
	next.Phase = PhaseCancelled
	return next
}

// DropOutcome reports how a gesture ended
type DropOutcome struct {
	Phase    Phase     `json:"phase"`
	LeadID   string    `json:"lead_id,omitempty"`
	From     Status    `json:"from,omitempty"`
	To       Status    `json:"to,omitempty"`
	Mutation *Mutation `json:"mutation,omitempty"`
}

// Moved reports whether the drop changed the lead's stage
func (o DropOutcome) Moved() bool {
	return o.Mutation != nil
}
