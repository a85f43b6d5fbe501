package notification

import (
	"context"
	"time"
)

// Channel constants for delivery methods
const (
	ChannelEmail  = "email"
	ChannelSMS    = "sms"
	ChannelExport = "export"
)

// Request asks the delivery side to reach a set of leads.
// Delivery itself is not tracked here.
type Request struct {
	Channel     string    `json:"channel"`
	LeadIDs     []string  `json:"lead_ids"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type Notifier interface {
	Notify(ctx context.Context, req Request) error
}
