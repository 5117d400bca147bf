package entity

import (
	"fmt"
	"strings"
	"time"

	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// ConferenceRequest represents a non-budgeted conference/event request
type ConferenceRequest struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`

	// Event details
	EventName       string `json:"event_name"`
	EventLocation   string `json:"event_location"`
	EventStartDate  *Date  `json:"event_start_date,omitempty"`
	EventEndDate    *Date  `json:"event_end_date,omitempty"`
	Attendees       string `json:"attendees"`
	HowManyAttended int    `json:"how_many_attended"`

	// Justification
	PrimaryObjective     string     `json:"primary_objective"`
	CorporatePriorities  Priorities `json:"corporate_priorities"`
	KnowledgeSharingPlan string     `json:"knowledge_sharing_plan"`
	PreviouslyAttended   string     `json:"previously_attended,omitempty"`
	AdditionalComments   string     `json:"additional_comments,omitempty"`

	// Costs, flattened into the JSON object
	Costs
	TotalEstimatedBudget float64 `json:"total_estimated_budget"`

	// Workflow
	Status         domainwf.State `json:"status"`
	SubmitterEmail string         `json:"submitter_email"`
	SubmitterName  string         `json:"submitter_name"`
	ManagerEmail   string         `json:"manager_email,omitempty"`

	ManagerApprovalDate *time.Time `json:"manager_approval_date,omitempty"`
	ManagerDenialReason string     `json:"manager_denial_reason,omitempty"`

	OrgDevApproverEmail string     `json:"org_dev_approver_email,omitempty"`
	OrgDevApprovalDate  *time.Time `json:"org_dev_approval_date,omitempty"`
	OrgDevDenialReason  string     `json:"org_dev_denial_reason,omitempty"`

	AccountingApproverEmail string     `json:"accounting_approver_email,omitempty"`
	AccountingApprovalDate  *time.Time `json:"accounting_approval_date,omitempty"`
	AccountingDenialReason  string     `json:"accounting_denial_reason,omitempty"`
	GLCode                  string     `json:"gl_code,omitempty"`

	// Audit
	SubmittedDate    *time.Time `json:"submitted_date,omitempty"`
	LastModifiedDate time.Time  `json:"last_modified_date"`
	CreatedAt        time.Time  `json:"created_at"`
}

// RecalculateTotal recomputes TotalEstimatedBudget from the cost fields
func (r *ConferenceRequest) RecalculateTotal() {
	r.TotalEstimatedBudget = Total(r.Costs)
}

// DenialReason returns the reason recorded by whichever stage denied the request
func (r *ConferenceRequest) DenialReason() string {
	switch {
	case r.ManagerDenialReason != "":
		return r.ManagerDenialReason
	case r.OrgDevDenialReason != "":
		return r.OrgDevDenialReason
	default:
		return r.AccountingDenialReason
	}
}

// IsSubmittedBy reports whether email belongs to the request's submitter
func (r *ConferenceRequest) IsSubmittedBy(email string) bool {
	return email != "" && strings.EqualFold(r.SubmitterEmail, email)
}

// CheckConsistency verifies the stored-record invariants: the total matches the
// costs, a denied request carries exactly one denial reason, and a GL code is
// present only on fully approved requests.
func (r *ConferenceRequest) CheckConsistency() error {
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: %q", domainwf.ErrInvalidState, r.Status)
	}

	if r.TotalEstimatedBudget != Total(r.Costs) {
		return fmt.Errorf("total %.2f does not match costs %.2f", r.TotalEstimatedBudget, Total(r.Costs))
	}

	reasons := 0
	for _, reason := range []string{r.ManagerDenialReason, r.OrgDevDenialReason, r.AccountingDenialReason} {
		if reason != "" {
			reasons++
		}
	}
	if r.Status == domainwf.StateDenied && reasons != 1 {
		return fmt.Errorf("denied request has %d denial reasons", reasons)
	}
	if r.Status != domainwf.StateDenied && reasons != 0 {
		return fmt.Errorf("request in %q has a denial reason", r.Status)
	}

	hasGL := r.GLCode != ""
	if hasGL != (r.Status == domainwf.StateFullyApproved) {
		return fmt.Errorf("gl code presence does not match status %q", r.Status)
	}

	return nil
}
