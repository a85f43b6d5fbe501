package pipeline

import (
	"time"

	"mukamba/internal/domain/lead"
)

type EventType string

const (
	EventLeadCreated  EventType = "lead_created"
	EventLeadUpdated  EventType = "lead_updated"
	EventLeadDeleted  EventType = "lead_deleted"
	EventLeadsDeleted EventType = "leads_deleted"
)

// Event is one change to the shared lead collection
type Event struct {
	Type    EventType  `json:"type"`
	LeadID  string     `json:"lead_id,omitempty"`
	LeadIDs []string   `json:"lead_ids,omitempty"`
	Lead    *lead.Lead `json:"lead,omitempty"`
	AgentID string     `json:"agent_id,omitempty"`
	At      time.Time  `json:"at"`
}
