package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier only logs requests; used when no Redis is configured
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, req Request) error {
	if len(req.LeadIDs) == 0 {
		return ErrNoRecipients
	}
	n.logger.Info("notification requested",
		zap.String("channel", req.Channel),
		zap.Strings("lead_ids", req.LeadIDs),
		zap.String("requested_by", req.RequestedBy),
		zap.Time("requested_at", req.RequestedAt),
	)
	return nil
}
