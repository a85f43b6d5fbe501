package lead

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status is the pipeline stage a lead sits in
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusViewing   Status = "viewing"
	StatusQualified Status = "qualified"
	StatusClosed    Status = "closed"
	StatusLost      Status = "lost"
)

// Stages lists the pipeline stages in board order.
var Stages = []Status{
	StatusNew,
	StatusContacted,
	StatusViewing,
	StatusQualified,
	StatusClosed,
	StatusLost,
}

// Valid reports whether s is one of the fixed pipeline stages
func (s Status) Valid() bool {
	return slices.Contains(Stages, s)
}

// Priority represents lead priority
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// KYCStatus represents identity verification state of the buyer
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

func (k KYCStatus) Valid() bool {
	return k == KYCPending || k == KYCVerified || k == KYCRejected
}

// Budget is a closed price range tagged with a currency
type Budget struct {
	Min      decimal.Decimal `json:"min" gorm:"column:min;type:numeric(14,2);not null;default:0"`
	Max      decimal.Decimal `json:"max" gorm:"column:max;type:numeric(14,2);not null;default:0"`
	Currency string          `json:"currency" gorm:"column:currency;type:varchar(3);not null;default:'USD'"`
}

func (b Budget) Valid() bool {
	return !b.Min.IsNegative() && b.Min.LessThanOrEqual(b.Max)
}

// Lead is a prospective buyer tracked through the sales pipeline
type Lead struct {
	ID    string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name  string `json:"name" gorm:"not null"`
	Email string `json:"email" gorm:"index"`
	Phone string `json:"phone"`

	Priority Priority `json:"priority" gorm:"type:varchar(16);not null;default:'medium'"`
	Status   Status   `json:"status" gorm:"type:varchar(16);not null;index"`

	LeadScore             int `json:"lead_score" gorm:"not null;default:0"`
	ConversionProbability int `json:"conversion_probability" gorm:"not null;default:0"`
	ResponseRate          int `json:"response_rate" gorm:"not null;default:0"`

	Budget Budget `json:"budget" gorm:"embedded;embeddedPrefix:budget_"`

	Location     string `json:"location,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	Source       string `json:"source,omitempty"`

	LastContact    time.Time  `json:"last_contact"`
	NextFollowUp   *time.Time `json:"next_follow_up,omitempty"`
	StageEnteredAt time.Time  `json:"stage_entered_at"`

	IsPhoneVerified bool      `json:"is_phone_verified"`
	IsEmailVerified bool      `json:"is_email_verified"`
	KYCStatus       KYCStatus `json:"kyc_status" gorm:"column:kyc_status;type:varchar(16);not null;default:'pending'"`

	Tags  []string `json:"tags" gorm:"serializer:json"`
	Notes *string  `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// IsOverdueAt reports whether the scheduled follow-up is already in the past.
// Nothing caches this value; it is always derived from NextFollowUp and now.
func (l *Lead) IsOverdueAt(now time.Time) bool {
	return l.NextFollowUp != nil && l.NextFollowUp.Before(now)
}

// IsVerified reports whether both contact channels were confirmed
func (l *Lead) IsVerified() bool {
	return l.IsPhoneVerified && l.IsEmailVerified
}

// TimeInStage returns whole days spent in the current stage
func (l *Lead) TimeInStage(now time.Time) int {
	return daysBetween(l.StageEnteredAt, now)
}

// TotalTimeInPipeline returns whole days since the lead was created
func (l *Lead) TotalTimeInPipeline(now time.Time) int {
	return daysBetween(l.CreatedAt, now)
}

// Clone returns a deep copy so callers never share slices or pointers with the store
func (l Lead) Clone() Lead {
	c := l
	if l.Tags != nil {
		c.Tags = slices.Clone(l.Tags)
	}
	if l.NextFollowUp != nil {
		t := *l.NextFollowUp
		c.NextFollowUp = &t
	}
	if l.Notes != nil {
		n := *l.Notes
		c.Notes = &n
	}
	return c
}

// Validate checks field invariants of a lead
func (l *Lead) Validate() error {
	switch {
	case strings.TrimSpace(l.Name) == "":
		return ErrNameRequired
	case !l.Status.Valid():
		return ErrInvalidStatus
	case !l.Priority.Valid():
		return ErrInvalidPriority
	case !l.KYCStatus.Valid():
		return ErrInvalidKYCStatus
	case !inPercentRange(l.LeadScore), !inPercentRange(l.ConversionProbability), !inPercentRange(l.ResponseRate):
		return ErrScoreOutOfRange
	case !l.Budget.Valid():
		return ErrInvalidBudget
	}
	return nil
}

// Normalize fills defaults and drops duplicate tags
func (l *Lead) Normalize(now time.Time) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Priority == "" {
		l.Priority = PriorityMedium
	}
	if l.KYCStatus == "" {
		l.KYCStatus = KYCPending
	}
	if l.Budget.Currency == "" {
		l.Budget.Currency = "USD"
	}
	l.Tags = uniqueTags(l.Tags)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.StageEnteredAt.IsZero() {
		l.StageEnteredAt = l.CreatedAt
	}
	if l.LastContact.IsZero() {
		l.LastContact = l.CreatedAt
	}
	l.UpdatedAt = now
}

// View is the read model of a lead with fields derived at query time
type View struct {
	Lead
	IsOverdue           bool `json:"is_overdue"`
	TimeInStage         int  `json:"time_in_stage"`
	TotalTimeInPipeline int  `json:"total_time_in_pipeline"`
}

func NewView(l Lead, now time.Time) View {
	return View{
		Lead:                l,
		IsOverdue:           l.IsOverdueAt(now),
		TimeInStage:         l.TimeInStage(now),
		TotalTimeInPipeline: l.TotalTimeInPipeline(now),
	}
}

func NewViews(leads []Lead, now time.Time) []View {
	views := make([]View, len(leads))
	for i, l := range leads {
		views[i] = NewView(l, now)
	}
	return views
}

func daysBetween(from, to time.Time) int {
	if from.IsZero() || !to.After(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}

func inPercentRange(v int) bool {
	return v >= 0 && v <= 100
}

func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
