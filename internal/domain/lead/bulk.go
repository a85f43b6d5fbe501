package lead

// Action is a bulk operation over the selected leads
type Action string

const (
	ActionEmail    Action = "email"
	ActionSMS      Action = "sms"
	ActionMove     Action = "move"
	ActionExport   Action = "export"
	ActionDelete   Action = "delete"
	ActionDeselect Action = "deselect"
)

func (a Action) Valid() bool {
	switch a {
	case ActionEmail, ActionSMS, ActionMove, ActionExport, ActionDelete, ActionDeselect:
		return true
	}
	return false
}

// Notifies reports whether the action is handed to the notification collaborator
func (a Action) Notifies() bool {
	return a == ActionEmail || a == ActionSMS || a == ActionExport
}

// BulkResult describes what a bulk action did to the board
type BulkResult struct {
	Action    Action     `json:"action"`
	IDs       []string   `json:"ids"`
	Mutations []Mutation `json:"mutations,omitempty"`
	Deleted   []Removed  `json:"-"`
}

// Empty reports whether the action touched nothing
func (r BulkResult) Empty() bool {
	return len(r.IDs) == 0
}

// DeletedIDs lists the ids removed from the store
func (r BulkResult) DeletedIDs() []string {
	ids := make([]string, len(r.Deleted))
	for i, d := range r.Deleted {
		ids[i] = d.Lead.ID
	}
	return ids
}
