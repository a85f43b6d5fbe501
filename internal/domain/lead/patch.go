package lead

import (
	"time"

	"github.com/shopspring/decimal"
)

// Patch is a partial update of a lead. Nil fields keep their current value.
type Patch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`

	Priority *Priority `json:"priority,omitempty"`
	Status   *Status   `json:"status,omitempty"`

	LeadScore             *int `json:"lead_score,omitempty"`
	ConversionProbability *int `json:"conversion_probability,omitempty"`
	ResponseRate          *int `json:"response_rate,omitempty"`

	BudgetMin      *decimal.Decimal `json:"budget_min,omitempty"`
	BudgetMax      *decimal.Decimal `json:"budget_max,omitempty"`
	BudgetCurrency *string          `json:"budget_currency,omitempty"`

	Location     *string `json:"location,omitempty"`
	PropertyType *string `json:"property_type,omitempty"`
	Source       *string `json:"source,omitempty"`

	LastContact       *time.Time `json:"last_contact,omitempty"`
	NextFollowUp      *time.Time `json:"next_follow_up,omitempty"`
	ClearNextFollowUp bool       `json:"clear_next_follow_up,omitempty"`

	IsPhoneVerified *bool      `json:"is_phone_verified,omitempty"`
	IsEmailVerified *bool      `json:"is_email_verified,omitempty"`
	KYCStatus       *KYCStatus `json:"kyc_status,omitempty"`

	Tags  *[]string `json:"tags,omitempty"`
	Notes *string   `json:"notes,omitempty"`
}

// StatusPatch builds the single-field patch issued by a stage move
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// ApplyTo returns a copy of l with the patch applied. The original is left untouched.
// Moving to a different stage restarts the time-in-stage clock.
func (p Patch) ApplyTo(l Lead, now time.Time) (Lead, error) {
	out := l.Clone()

	setIf(&out.Name, p.Name)
	setIf(&out.Email, p.Email)
	setIf(&out.Phone, p.Phone)
	setIf(&out.Priority, p.Priority)
	setIf(&out.LeadScore, p.LeadScore)
	setIf(&out.ConversionProbability, p.ConversionProbability)
	setIf(&out.ResponseRate, p.ResponseRate)
	setIf(&out.Budget.Min, p.BudgetMin)
	setIf(&out.Budget.Max, p.BudgetMax)
	setIf(&out.Budget.Currency, p.BudgetCurrency)
	setIf(&out.Location, p.Location)
	setIf(&out.PropertyType, p.PropertyType)
	setIf(&out.Source, p.Source)
	setIf(&out.LastContact, p.LastContact)
	setIf(&out.IsPhoneVerified, p.IsPhoneVerified)
	setIf(&out.IsEmailVerified, p.IsEmailVerified)
	setIf(&out.KYCStatus, p.KYCStatus)

	if p.Status != nil && *p.Status != out.Status {
		out.Status = *p.Status
		out.StageEnteredAt = now
	}
	if p.ClearNextFollowUp {
		out.NextFollowUp = nil
	} else if p.NextFollowUp != nil {
		t := *p.NextFollowUp
		out.NextFollowUp = &t
	}
	if p.Tags != nil {
		out.Tags = uniqueTags(*p.Tags)
	}
	if p.Notes != nil {
		n := *p.Notes
		out.Notes = &n
	}

	if err := out.Validate(); err != nil {
		return l, err
	}
	out.UpdatedAt = now
	return out, nil
}

// Columns lists the database columns touched by the patch
func (p Patch) Columns() []string {
	cols := []string{"updated_at"}
	add := func(set bool, names ...string) {
		if set {
			cols = append(cols, names...)
		}
	}
	add(p.Name != nil, "name")
	add(p.Email != nil, "email")
	add(p.Phone != nil, "phone")
	add(p.Priority != nil, "priority")
	add(p.Status != nil, "status", "stage_entered_at")
	add(p.LeadScore != nil, "lead_score")
	add(p.ConversionProbability != nil, "conversion_probability")
	add(p.ResponseRate != nil, "response_rate")
	add(p.BudgetMin != nil, "budget_min")
	add(p.BudgetMax != nil, "budget_max")
	add(p.BudgetCurrency != nil, "budget_currency")
	add(p.Location != nil, "location")
	add(p.PropertyType != nil, "property_type")
	add(p.Source != nil, "source")
	add(p.LastContact != nil, "last_contact")
	add(p.NextFollowUp != nil || p.ClearNextFollowUp, "next_follow_up")
	add(p.IsPhoneVerified != nil, "is_phone_verified")
	add(p.IsEmailVerified != nil, "is_email_verified")
	add(p.KYCStatus != nil, "kyc_status")
	add(p.Tags != nil, "tags")
	add(p.Notes != nil, "notes")
	return cols
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
