package lead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGesture_Transitions(t *testing.T) {
	g := IdleGesture()
	assert.False(t, g.Active())

	_, err := g.Hover(StatusViewing)
	assert.ErrorIs(t, err, ErrNoGesture)

	g, err = g.Start("7", StatusNew, testNow)
	require.NoError(t, err)
	assert.Equal(t, PhaseDragging, g.Phase)
	assert.Equal(t, StatusNew, g.Source)

	_, err = g.Start("8", StatusNew, testNow)
	assert.ErrorIs(t, err, ErrGestureActive)

	g, err = g.Hover(StatusViewing)
	require.NoError(t, err)
	assert.Equal(t, PhaseHovering, g.Phase)
	assert.Equal(t, StatusViewing, g.Target)

	unchanged, err := g.Hover("nowhere")
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Equal(t, g, unchanged)

	dropped, err := g.Drop(StatusViewing)
	require.NoError(t, err)
	assert.Equal(t, PhaseDropped, dropped.Phase)
	assert.False(t, dropped.Active())
}

func TestGesture_DropInvalidCancels(t *testing.T) {
	g, err := IdleGesture().Start("1", StatusNew, testNow)
	require.NoError(t, err)

	resolved, err := g.Drop("")

	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Equal(t, PhaseCancelled, resolved.Phase)
}

func TestGesture_Stale(t *testing.T) {
	g, err := IdleGesture().Start("1", StatusNew, testNow)
	require.NoError(t, err)

	assert.False(t, g.Stale(testNow.Add(time.Hour), 0))
	assert.False(t, g.Stale(testNow.Add(time.Second), time.Minute))
	assert.True(t, g.Stale(testNow.Add(2*time.Minute), time.Minute))
	assert.False(t, IdleGesture().Stale(testNow.Add(time.Hour), time.Minute))
}
