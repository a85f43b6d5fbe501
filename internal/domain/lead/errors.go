package lead

import "errors"

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrLeadExists       = errors.New("lead already exists")
	ErrNameRequired     = errors.New("lead name is required")
	ErrInvalidStatus    = errors.New("invalid pipeline stage")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidKYCStatus = errors.New("invalid kyc status")
	ErrScoreOutOfRange  = errors.New("score must be between 0 and 100")
	ErrInvalidBudget    = errors.New("budget min must be non-negative and not exceed max")

	ErrGestureActive   = errors.New("another drag gesture is in progress")
	ErrNoGesture       = errors.New("no drag gesture in progress")
	ErrInvalidTarget   = errors.New("invalid drop target")
	ErrStageFull       = errors.New("stage is at capacity")
	ErrUnknownAction   = errors.New("unknown bulk action")
	ErrMoveNeedsTarget = errors.New("move requires a target stage")
)
