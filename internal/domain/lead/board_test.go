package lead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoard(t *testing.T, limits StageLimits, leads ...Lead) (*Board, *Store) {
	t.Helper()
	store := NewStore(limits)
	store.Replace(leads)
	return NewBoard(store, 0), store
}

func TestBoard_ExampleScenario(t *testing.T) {
	board, store := newTestBoard(t, nil,
		newTestLead("1", StatusNew, 900000),
		newTestLead("2", StatusContacted, 1200000),
	)
	board.SetFilter(FilterPatch{
		Statuses: &[]Status{StatusNew},
		Budget:   &BudgetRange{Max: CoerceBudgetRange("0", "1000000").Max},
	})
	assert.Equal(t, []string{"1"}, ids(board.Leads(testNow)))

	_, err := board.StartDrag("1", testNow)
	require.NoError(t, err)
	_, err = board.Hover(StatusContacted)
	require.NoError(t, err)
	out, err := board.Drop(StatusContacted, testNow)
	require.NoError(t, err)

	assert.Equal(t, PhaseDropped, out.Phase)
	require.True(t, out.Moved())
	assert.Equal(t, StatusContacted, out.Mutation.After.Status)
	l, _ := store.Get("1")
	assert.Equal(t, StatusContacted, l.Status)

	board.ResetFilter()
	metrics := board.View(testNow, "", false).Stages
	assert.Equal(t, 0, metricsFor(t, metrics, StatusNew).Count)
	assert.Equal(t, 2, metricsFor(t, metrics, StatusContacted).Count)
}

func TestBoard_DropOnSameStageIsNoop(t *testing.T) {
	board, store := newTestBoard(t, nil, newTestLead("1", StatusViewing, 10))
	before, _ := store.Get("1")

	_, err := board.StartDrag("1", testNow)
	require.NoError(t, err)
	_, err = board.Hover(StatusQualified)
	require.NoError(t, err)
	_, err = board.Hover(StatusViewing)
	require.NoError(t, err)
	assert.Equal(t, PhaseDragging, board.Gesture().Phase)

	out, err := board.Drop(StatusViewing, testNow.Add(time.Hour))

	require.NoError(t, err)
	assert.Equal(t, PhaseDropped, out.Phase)
	assert.False(t, out.Moved())
	after, _ := store.Get("1")
	assert.Equal(t, before, after)
	assert.Equal(t, PhaseIdle, board.Gesture().Phase)
}

func TestBoard_SingleActiveGesture(t *testing.T) {
	board, _ := newTestBoard(t, nil, newTestLead("1", StatusNew, 1), newTestLead("2", StatusNew, 1))

	_, err := board.StartDrag("1", testNow)
	require.NoError(t, err)

	g, err := board.StartDrag("2", testNow)
	assert.ErrorIs(t, err, ErrGestureActive)
	assert.Equal(t, "1", g.LeadID)

	board.CancelDrag()
	_, err = board.StartDrag("2", testNow)
	assert.NoError(t, err)
}

func TestBoard_StaleGestureIsReclaimed(t *testing.T) {
	store := NewStore(nil)
	store.Replace([]Lead{newTestLead("1", StatusNew, 1), newTestLead("2", StatusNew, 1)})
	board := NewBoard(store, time.Minute)

	_, err := board.StartDrag("1", testNow)
	require.NoError(t, err)
	_, err = board.StartDrag("2", testNow.Add(30*time.Second))
	require.ErrorIs(t, err, ErrGestureActive)

	g, err := board.StartDrag("2", testNow.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "2", g.LeadID)
}

func TestBoard_CancelNeverMutates(t *testing.T) {
	board, store := newTestBoard(t, nil, newTestLead("1", StatusNew, 1))
	before := store.Snapshot()

	_, err := board.StartDrag("1", testNow)
	require.NoError(t, err)
	_, err = board.Hover(StatusClosed)
	require.NoError(t, err)
	out := board.CancelDrag()

	assert.Equal(t, PhaseCancelled, out.Phase)
	assert.Equal(t, "1", out.LeadID)
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, PhaseIdle, board.Gesture().Phase)

	// cancelling from idle is harmless
	assert.Equal(t, PhaseCancelled, board.CancelDrag().Phase)
}

func TestBoard_DropOnInvalidTargetCancels(t *testing.T) {
	board, store := newTestBoard(t, nil, newTestLead("1", StatusNew, 1))
	_, err := board.StartDrag("1", testNow)
	require.NoError(t, err)

	out, err := board.Drop(Status("archived"), testNow)

	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Equal(t, PhaseCancelled, out.Phase)
	assert.Nil(t, out.Mutation)
	l, _ := store.Get("1")
	assert.Equal(t, StatusNew, l.Status)
	assert.Equal(t, PhaseIdle, board.Gesture().Phase)
}

func TestBoard_DropOnFullStageCancels(t *testing.T) {
	board, store := newTestBoard(t, StageLimits{StatusViewing: 1},
		newTestLead("1", StatusNew, 1),
		newTestLead("2", StatusViewing, 1),
	)
	_, err := board.StartDrag("1", testNow)
	require.NoError(t, err)

	out, err := board.Drop(StatusViewing, testNow)

	assert.ErrorIs(t, err, ErrStageFull)
	assert.Equal(t, PhaseCancelled, out.Phase)
	assert.Equal(t, 1, store.Count(StatusViewing))
	assert.Equal(t, PhaseIdle, board.Gesture().Phase)
}

func TestBoard_DropWithoutGesture(t *testing.T) {
	board, _ := newTestBoard(t, nil, newTestLead("1", StatusNew, 1))

	_, err := board.Drop(StatusContacted, testNow)

	assert.ErrorIs(t, err, ErrNoGesture)
}

func TestBoard_StartDragUnknownLead(t *testing.T) {
	board, _ := newTestBoard(t, nil)

	_, err := board.StartDrag("missing", testNow)

	assert.ErrorIs(t, err, ErrLeadNotFound)
	assert.Equal(t, PhaseIdle, board.Gesture().Phase)
}

func TestBoard_SelectionIsIdempotent(t *testing.T) {
	board, _ := newTestBoard(t, nil, newTestLead("1", StatusNew, 1), newTestLead("2", StatusNew, 1))

	board.Select("1", "2", "1", "ghost")
	selected := board.Select("2")

	assert.Equal(t, []string{"1", "2"}, selected)
	assert.Equal(t, []string{"2"}, board.Deselect("1"))
}

func TestBoard_BulkDeleteClearsSelection(t *testing.T) {
	board, store := newTestBoard(t, nil,
		newTestLead("1", StatusNew, 1),
		newTestLead("2", StatusNew, 1),
		newTestLead("3", StatusNew, 1),
	)
	board.Select("1", "3")

	res, err := board.Bulk(ActionDelete, "", testNow)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "3"}, res.DeletedIDs())
	assert.Empty(t, board.Selected())
	assert.False(t, store.Has("1"))
	assert.False(t, store.Has("3"))
	assert.Equal(t, []string{"2"}, ids(store.Snapshot()))
}

func TestBoard_BulkDeselectIsIdempotent(t *testing.T) {
	board, store := newTestBoard(t, nil, newTestLead("1", StatusNew, 1))
	board.Select("1")

	for i := 0; i < 2; i++ {
		res, err := board.Bulk(ActionDeselect, "", testNow)
		require.NoError(t, err)
		assert.Empty(t, res.Mutations)
		assert.Empty(t, board.Selected())
	}
	assert.Equal(t, 1, store.Len())
}

func TestBoard_BulkOnEmptySelectionIsNoop(t *testing.T) {
	board, store := newTestBoard(t, nil, newTestLead("1", StatusNew, 1))

	for _, a := range []Action{ActionEmail, ActionSMS, ActionExport, ActionDelete, ActionMove} {
		res, err := board.Bulk(a, "", testNow)
		assert.NoError(t, err, a)
		assert.True(t, res.Empty(), a)
	}
	assert.Equal(t, 1, store.Len())
}

func TestBoard_BulkMove(t *testing.T) {
	board, store := newTestBoard(t, StageLimits{StatusQualified: 2},
		newTestLead("1", StatusNew, 1),
		newTestLead("2", StatusQualified, 1),
		newTestLead("3", StatusViewing, 1),
	)
	board.Select("1", "2")

	res, err := board.Bulk(ActionMove, StatusQualified, testNow)

	require.NoError(t, err)
	require.Len(t, res.Mutations, 1)
	assert.Equal(t, "1", res.Mutations[0].LeadID)
	assert.Equal(t, 2, store.Count(StatusQualified))
	assert.Equal(t, []string{"1", "2"}, board.Selected())

	board.Select("3")
	_, err = board.Bulk(ActionMove, StatusQualified, testNow)
	assert.ErrorIs(t, err, ErrStageFull)
	l, _ := store.Get("3")
	assert.Equal(t, StatusViewing, l.Status)

	_, err = board.Bulk(ActionMove, "", testNow)
	assert.ErrorIs(t, err, ErrMoveNeedsTarget)
}

func TestBoard_BulkPrunesVanishedLeads(t *testing.T) {
	board, store := newTestBoard(t, nil, newTestLead("1", StatusNew, 1), newTestLead("2", StatusNew, 1))
	board.Select("1", "2")
	_, err := store.Delete("2")
	require.NoError(t, err)

	res, err := board.Bulk(ActionEmail, "", testNow)

	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, res.IDs)
}

func TestBoard_UnknownAction(t *testing.T) {
	board, _ := newTestBoard(t, nil)

	_, err := board.Bulk(Action("archive"), "", testNow)

	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestBoard_ViewDerivesFields(t *testing.T) {
	l := newTestLead("1", StatusNew, 1)
	due := testNow.Add(-time.Minute)
	l.NextFollowUp = &due
	board, _ := newTestBoard(t, nil, l)

	v := board.View(testNow, SortByScore, true)

	require.Len(t, v.Leads, 1)
	assert.True(t, v.Leads[0].IsOverdue)
	assert.Equal(t, 4, v.Leads[0].TimeInStage)
	assert.Equal(t, 10, v.Leads[0].TotalTimeInPipeline)
	assert.Equal(t, 1, v.Summary.Overdue)
	assert.Equal(t, PhaseIdle, v.Gesture.Phase)
}
