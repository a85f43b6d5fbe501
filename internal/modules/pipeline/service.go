package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"mukamba/internal/domain/lead"
	"mukamba/internal/notification"
)

type Options struct {
	StageLimits    lead.StageLimits
	GestureTimeout time.Duration
}

// Service owns the shared lead store and one board per agent. Every store
// change is persisted; when the write fails the store change is undone.
// Writes to the same lead are serialised through locks.
type Service struct {
	repo     Repository
	notifier notification.Notifier
	events   Broadcaster
	logger   *zap.Logger
	now      func() time.Time

	store          *lead.Store
	locks          *leadLocks
	gestureTimeout time.Duration

	mu     sync.Mutex
	boards map[string]*lead.Board
}

func NewService(repo Repository, notifier notification.Notifier, events Broadcaster, opts Options, logger *zap.Logger) *Service {
	return &Service{
		repo:           repo,
		notifier:       notifier,
		events:         events,
		logger:         logger.Named("pipeline"),
		now:            time.Now,
		store:          lead.NewStore(opts.StageLimits),
		locks:          newLeadLocks(),
		gestureTimeout: opts.GestureTimeout,
		boards:         make(map[string]*lead.Board),
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Load replaces the in-memory collection with the persisted one
func (s *Service) Load(ctx context.Context) error {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load leads: %w", err)
	}
	s.store.Replace(leads)
	s.logger.Info("pipeline loaded", zap.Int("leads", len(leads)))
	return nil
}

func (s *Service) board(agentID string) *lead.Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[agentID]
	if !ok {
		b = lead.NewBoard(s.store, s.gestureTimeout)
		s.boards[agentID] = b
	}
	return b
}

// forget prunes removed leads from every agent's selection and gesture
func (s *Service) forget(ids ...string) {
	s.mu.Lock()
	boards := make([]*lead.Board, 0, len(s.boards))
	for _, b := range s.boards {
		boards = append(boards, b)
	}
	s.mu.Unlock()

	for _, b := range boards {
		b.Forget(ids...)
	}
}

func (s *Service) broadcast(ev Event) {
	if s.events == nil {
		return
	}
	ev.At = s.now()
	s.events.Broadcast(ev)
}

/* ==================== READ ==================== */

func (s *Service) View(agentID string, key lead.SortKey, desc bool) lead.BoardView {
	return s.board(agentID).View(s.now(), key, desc)
}

// Stages returns metrics of the agent's filtered leads
func (s *Service) Stages(agentID string) []lead.StageMetrics {
	return lead.Aggregate(s.board(agentID).Leads(s.now()), s.now())
}

func (s *Service) Filter(agentID string) lead.Filter {
	return s.board(agentID).Filter()
}

func (s *Service) SetFilter(agentID string, p lead.FilterPatch) lead.Filter {
	return s.board(agentID).SetFilter(p)
}

func (s *Service) ResetFilter(agentID string) lead.Filter {
	return s.board(agentID).ResetFilter()
}

func (s *Service) GetLead(id string) (lead.View, error) {
	l, ok := s.store.Get(id)
	if !ok {
		return lead.View{}, lead.ErrLeadNotFound
	}
	return lead.NewView(l, s.now()), nil
}

/* ==================== LEADS ==================== */

func (s *Service) CreateLead(ctx context.Context, agentID string, l lead.Lead) (lead.View, error) {
	now := s.now()
	l.Normalize(now)
	if err := l.Validate(); err != nil {
		return lead.View{}, err
	}
	unlock := s.locks.lock(l.ID)
	defer unlock()

	if err := s.store.Insert(l); err != nil {
		return lead.View{}, err
	}
	if err := s.repo.Create(ctx, &l); err != nil {
		_, _ = s.store.Delete(l.ID)
		s.logger.Error("create lead failed, reverted", zap.String("lead_id", l.ID), zap.Error(err))
		return lead.View{}, err
	}

	s.broadcast(Event{Type: EventLeadCreated, LeadID: l.ID, Lead: &l, AgentID: agentID})
	return lead.NewView(l, now), nil
}

func (s *Service) PatchLead(ctx context.Context, agentID, id string, p lead.Patch) (lead.View, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	m, err := s.store.Patch(id, p, s.now())
	if err != nil {
		return lead.View{}, err
	}
	if err := s.persist(ctx, m); err != nil {
		return lead.View{}, err
	}
	s.broadcastUpdate(agentID, m)
	return lead.NewView(m.After, s.now()), nil
}

// MarkContacted records a contact now; a new lead moves to contacted
func (s *Service) MarkContacted(ctx context.Context, agentID, id string) (lead.View, error) {
	current, ok := s.store.Get(id)
	if !ok {
		return lead.View{}, lead.ErrLeadNotFound
	}
	now := s.now()
	p := lead.Patch{LastContact: &now}
	if current.Status == lead.StatusNew {
		contacted := lead.StatusContacted
		p.Status = &contacted
	}
	return s.PatchLead(ctx, agentID, id, p)
}

// ScheduleFollowUp sets the next follow-up; nil clears it
func (s *Service) ScheduleFollowUp(ctx context.Context, agentID, id string, at *time.Time) (lead.View, error) {
	p := lead.Patch{NextFollowUp: at, ClearNextFollowUp: at == nil}
	return s.PatchLead(ctx, agentID, id, p)
}

func (s *Service) DeleteLead(ctx context.Context, agentID, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	removed, err := s.store.Delete(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.store.Restore([]lead.Removed{removed})
		s.logger.Error("delete lead failed, restored", zap.String("lead_id", id), zap.Error(err))
		return err
	}
	s.forget(id)
	s.broadcast(Event{Type: EventLeadDeleted, LeadID: id, AgentID: agentID})
	return nil
}

func (s *Service) persist(ctx context.Context, m lead.Mutation) error {
	if err := s.repo.Update(ctx, m.After, m.Patch); err != nil {
		s.revert(m)
		s.logger.Error("update lead failed, reverted", zap.String("lead_id", m.LeadID), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) revert(m lead.Mutation) {
	if !s.store.Revert(m) {
		s.logger.Warn("revert skipped, lead changed or removed since", zap.String("lead_id", m.LeadID))
	}
}

func (s *Service) broadcastUpdate(agentID string, m lead.Mutation) {
	after := m.After
	s.broadcast(Event{Type: EventLeadUpdated, LeadID: m.LeadID, Lead: &after, AgentID: agentID})
}

/* ==================== DRAG ==================== */

func (s *Service) Gesture(agentID string) lead.Gesture {
	return s.board(agentID).Gesture()
}

func (s *Service) StartDrag(agentID, leadID string) (lead.Gesture, error) {
	return s.board(agentID).StartDrag(leadID, s.now())
}

func (s *Service) Hover(agentID string, stage lead.Status) (lead.Gesture, error) {
	return s.board(agentID).Hover(stage)
}

// Drop resolves the agent's gesture and persists a stage change
func (s *Service) Drop(ctx context.Context, agentID string, stage lead.Status) (lead.DropOutcome, error) {
	b := s.board(agentID)
	unlock := s.locks.lock(b.Gesture().LeadID)
	defer unlock()

	out, err := b.Drop(stage, s.now())
	if err != nil || !out.Moved() {
		return out, err
	}
	if err := s.persist(ctx, *out.Mutation); err != nil {
		out.Phase = lead.PhaseCancelled
		out.Mutation = nil
		return out, err
	}
	s.broadcastUpdate(agentID, *out.Mutation)
	return out, nil
}

func (s *Service) CancelDrag(agentID string) lead.DropOutcome {
	return s.board(agentID).CancelDrag()
}

/* ==================== SELECTION & BULK ==================== */

func (s *Service) Selected(agentID string) []string {
	return s.board(agentID).Selected()
}

func (s *Service) Select(agentID string, ids ...string) []string {
	return s.board(agentID).Select(ids...)
}

func (s *Service) Deselect(agentID string, ids ...string) []string {
	return s.board(agentID).Deselect(ids...)
}

func (s *Service) ClearSelection(agentID string) {
	s.board(agentID).ClearSelection()
}

// Bulk runs action over the agent's selection
func (s *Service) Bulk(ctx context.Context, agentID string, action lead.Action, target lead.Status) (lead.BulkResult, error) {
	b := s.board(agentID)
	if action == lead.ActionDelete || action == lead.ActionMove {
		defer s.lockSelection(b)()
	}
	res, err := b.Bulk(action, target, s.now())
	if err != nil || res.Empty() {
		return res, err
	}

	switch {
	case action == lead.ActionDelete:
		return res, s.persistDelete(ctx, agentID, b, res)
	case action == lead.ActionMove:
		return res, s.persistMove(ctx, agentID, res)
	case action.Notifies():
		return res, s.notify(ctx, agentID, res)
	}
	return res, nil
}

// lockSelection locks the leads in b's selection, retrying if it changed meanwhile
func (s *Service) lockSelection(b *lead.Board) func() {
	for {
		ids := b.Selected()
		unlock := s.locks.lock(ids...)
		if slices.Equal(ids, b.Selected()) {
			return unlock
		}
		unlock()
	}
}

func (s *Service) persistDelete(ctx context.Context, agentID string, b *lead.Board, res lead.BulkResult) error {
	ids := res.DeletedIDs()
	if len(ids) == 0 {
		return nil
	}
	if err := s.repo.DeleteMany(ctx, ids); err != nil {
		s.store.Restore(res.Deleted)
		b.Reselect(res.IDs)
		s.logger.Error("bulk delete failed, restored", zap.Strings("lead_ids", ids), zap.Error(err))
		return err
	}
	s.forget(ids...)
	s.broadcast(Event{Type: EventLeadsDeleted, LeadIDs: ids, AgentID: agentID})
	return nil
}

func (s *Service) persistMove(ctx context.Context, agentID string, res lead.BulkResult) error {
	if err := s.repo.UpdateMany(ctx, res.Mutations); err != nil {
		for _, m := range res.Mutations {
			s.revert(m)
		}
		s.logger.Error("bulk move failed, reverted", zap.Strings("lead_ids", res.IDs), zap.Error(err))
		return err
	}
	for _, m := range res.Mutations {
		s.broadcastUpdate(agentID, m)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, agentID string, res lead.BulkResult) error {
	err := s.notifier.Notify(ctx, notification.Request{
		Channel:     string(res.Action),
		LeadIDs:     res.IDs,
		RequestedBy: agentID,
		RequestedAt: s.now(),
	})
	if err != nil {
		s.logger.Error("notify failed",
			zap.String("action", string(res.Action)),
			zap.Strings("lead_ids", res.IDs),
			zap.Error(err),
		)
		return errors.Join(ErrNotifyFailed, err)
	}
	return nil
}
