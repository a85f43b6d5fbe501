package notification

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var requestedAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.FixedZone("CAT", 2*60*60))

func TestStreamValues(t *testing.T) {
	values, err := streamValues(Request{
		Channel:     ChannelSMS,
		LeadIDs:     []string{"a", "b"},
		RequestedBy: "agent-7",
		RequestedAt: requestedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"channel":      "sms",
		"lead_ids":     `["a","b"]`,
		"requested_by": "agent-7",
		"requested_at": "2026-03-10T10:00:00Z",
	}, values)

	_, err = streamValues(Request{Channel: ChannelEmail})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestRedisNotifier_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	n := NewRedisNotifier(client, "pipeline:bulk")
	t.Cleanup(func() { _ = n.Close() })

	err := n.Notify(context.Background(), Request{Channel: ChannelEmail, LeadIDs: []string{"a"}, RequestedAt: requestedAt})

	assert.ErrorContains(t, err, "xadd pipeline:bulk")
	assert.Error(t, n.Ping(context.Background()))
}

func TestLogNotifier(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), Request{Channel: ChannelExport, LeadIDs: []string{"x"}}))
	assert.ErrorIs(t, n.Notify(context.Background(), Request{Channel: ChannelExport}), ErrNoRecipients)

	entries := recorded.FilterMessage("notification requested").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "export", entries[0].ContextMap()["channel"])
	assert.Equal(t, "notifier", entries[0].LoggerName)
}
