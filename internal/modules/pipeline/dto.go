package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"mukamba/internal/domain/lead"
)

type CreateLeadRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`

	Priority lead.Priority `json:"priority" validate:"omitempty,oneof=high medium low"`
	Status   lead.Status   `json:"status" validate:"omitempty,oneof=new contacted viewing qualified closed lost"`

	LeadScore             int `json:"lead_score" validate:"min=0,max=100"`
	ConversionProbability int `json:"conversion_probability" validate:"min=0,max=100"`
	ResponseRate          int `json:"response_rate" validate:"min=0,max=100"`

	BudgetMin      decimal.Decimal `json:"budget_min"`
	BudgetMax      decimal.Decimal `json:"budget_max"`
	BudgetCurrency string          `json:"budget_currency" validate:"omitempty,len=3"`

	Location     string `json:"location"`
	PropertyType string `json:"property_type"`
	Source       string `json:"source"`

	LastContact  *time.Time `json:"last_contact"`
	NextFollowUp *time.Time `json:"next_follow_up"`

	IsPhoneVerified bool           `json:"is_phone_verified"`
	IsEmailVerified bool           `json:"is_email_verified"`
	KYCStatus       lead.KYCStatus `json:"kyc_status" validate:"omitempty,oneof=pending verified rejected"`

	Tags  []string `json:"tags" validate:"omitempty,dive,max=64"`
	Notes *string  `json:"notes"`
}

func (r CreateLeadRequest) ToLead() lead.Lead {
	l := lead.Lead{
		Name:                  r.Name,
		Email:                 r.Email,
		Phone:                 r.Phone,
		Priority:              r.Priority,
		Status:                r.Status,
		LeadScore:             r.LeadScore,
		ConversionProbability: r.ConversionProbability,
		ResponseRate:          r.ResponseRate,
		Budget:                lead.Budget{Min: r.BudgetMin, Max: r.BudgetMax, Currency: r.BudgetCurrency},
		Location:              r.Location,
		PropertyType:          r.PropertyType,
		Source:                r.Source,
		NextFollowUp:          r.NextFollowUp,
		IsPhoneVerified:       r.IsPhoneVerified,
		IsEmailVerified:       r.IsEmailVerified,
		KYCStatus:             r.KYCStatus,
		Tags:                  r.Tags,
		Notes:                 r.Notes,
	}
	if r.LastContact != nil {
		l.LastContact = *r.LastContact
	}
	return l
}

// FilterRequest is a partial filter update. Budget bounds arrive as free
// text and conversion bounds as numbers; both are coerced, never rejected.
type FilterRequest struct {
	Search        *string          `json:"search"`
	Statuses      *[]lead.Status   `json:"statuses"`
	Priorities    *[]lead.Priority `json:"priorities"`
	Locations     *[]string        `json:"locations"`
	PropertyTypes *[]string        `json:"property_types"`
	Sources       *[]string        `json:"sources"`
	BudgetMin     *string          `json:"budget_min"`
	BudgetMax     *string          `json:"budget_max"`
	ConversionMin *float64         `json:"conversion_min"`
	ConversionMax *float64         `json:"conversion_max"`
	LastContact   *lead.Recency    `json:"last_contact"`
	OverdueOnly   *bool            `json:"overdue_only"`
	VerifiedOnly  *bool            `json:"verified_only"`
	Reset         bool             `json:"reset"`
}

// ToPatch fills bounds missing from the request with the current ones
func (r FilterRequest) ToPatch(current lead.Filter) lead.FilterPatch {
	p := lead.FilterPatch{
		Search:        r.Search,
		Statuses:      r.Statuses,
		Priorities:    r.Priorities,
		Locations:     r.Locations,
		PropertyTypes: r.PropertyTypes,
		Sources:       r.Sources,
		LastContact:   r.LastContact,
		OverdueOnly:   r.OverdueOnly,
		VerifiedOnly:  r.VerifiedOnly,
	}

	if r.BudgetMin != nil || r.BudgetMax != nil {
		minText := current.Budget.Min.String()
		maxText := ""
		if current.Budget.Max.Valid {
			maxText = current.Budget.Max.Decimal.String()
		}
		if r.BudgetMin != nil {
			minText = *r.BudgetMin
		}
		if r.BudgetMax != nil {
			maxText = *r.BudgetMax
		}
		budget := lead.CoerceBudgetRange(minText, maxText)
		p.Budget = &budget
	}

	if r.ConversionMin != nil || r.ConversionMax != nil {
		lo, hi := current.Conversion.Min, current.Conversion.Max
		if r.ConversionMin != nil {
			lo = *r.ConversionMin
		}
		if r.ConversionMax != nil {
			hi = *r.ConversionMax
		}
		conversion := lead.CoerceConversionRange(lo, hi)
		p.Conversion = &conversion
	}
	return p
}

type FollowUpRequest struct {
	At *time.Time `json:"at"`
}

type DragStartRequest struct {
	LeadID string `json:"lead_id" validate:"required"`
}

type DragStageRequest struct {
	Stage lead.Status `json:"stage" validate:"required"`
}

type SelectionRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type BulkRequest struct {
	Action lead.Action `json:"action" validate:"required"`
	Target lead.Status `json:"target"`
}

type BulkResponse struct {
	Action    lead.Action `json:"action"`
	IDs       []string    `json:"ids"`
	Moved     int         `json:"moved"`
	Deleted   []string    `json:"deleted"`
	Selection []string    `json:"selection"`
}
