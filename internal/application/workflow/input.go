package workflow

import (
	"strings"

	"github.com/garyjia/conference-requests/internal/domain/entity"
)

// DraftInput is the submitter-editable content of a request
type DraftInput struct {
	EventName       string       `json:"event_name"`
	EventLocation   string       `json:"event_location"`
	EventStartDate  *entity.Date `json:"event_start_date"`
	EventEndDate    *entity.Date `json:"event_end_date"`
	Attendees       string       `json:"attendees"`
	HowManyAttended int          `json:"how_many_attended"`

	PrimaryObjective     string            `json:"primary_objective"`
	CorporatePriorities  entity.Priorities `json:"corporate_priorities"`
	KnowledgeSharingPlan string            `json:"knowledge_sharing_plan"`
	PreviouslyAttended   string            `json:"previously_attended"`
	AdditionalComments   string            `json:"additional_comments"`

	entity.Costs
}

// Validate checks constraints that hold for drafts as well as submissions
func (in *DraftInput) Validate() error {
	var fields []string
	if in.HowManyAttended < 0 {
		fields = append(fields, "how_many_attended")
	}
	for _, label := range in.Costs.NegativeItems() {
		fields = append(fields, label)
	}
	if len(fields) > 0 {
		return validationErr("values must not be negative", fields...)
	}
	if unknown := in.CorporatePriorities.Unknown(); len(unknown) > 0 {
		return validationErr("unknown corporate priorities", unknown...)
	}
	return nil
}

// Patch converts the input into a patch replacing all draft content.
// The title mirrors the event name.
func (in *DraftInput) Patch() entity.RequestPatch {
	name := strings.TrimSpace(in.EventName)
	priorities := in.CorporatePriorities.Normalize()

	return entity.RequestPatch{
		Title:                entity.Ptr(name),
		EventName:            entity.Ptr(name),
		EventLocation:        entity.Ptr(strings.TrimSpace(in.EventLocation)),
		EventStartDate:       dateOrClear(in.EventStartDate),
		EventEndDate:         dateOrClear(in.EventEndDate),
		Attendees:            entity.Ptr(strings.TrimSpace(in.Attendees)),
		HowManyAttended:      entity.Ptr(in.HowManyAttended),
		PrimaryObjective:     entity.Ptr(strings.TrimSpace(in.PrimaryObjective)),
		CorporatePriorities:  &priorities,
		KnowledgeSharingPlan: entity.Ptr(strings.TrimSpace(in.KnowledgeSharingPlan)),
		PreviouslyAttended:   entity.Ptr(strings.TrimSpace(in.PreviouslyAttended)),
		AdditionalComments:   entity.Ptr(strings.TrimSpace(in.AdditionalComments)),
		Costs:                entity.FullCostPatch(in.Costs.Sanitized()),
	}
}

func dateOrClear(d *entity.Date) *entity.Date {
	if d == nil {
		return &entity.Date{}
	}
	return d
}

// validateSubmission checks the mandatory fields of a request about to be submitted
func validateSubmission(req *entity.ConferenceRequest) error {
	var missing []string
	if strings.TrimSpace(req.EventName) == "" {
		missing = append(missing, "event_name")
	}
	if strings.TrimSpace(req.EventLocation) == "" {
		missing = append(missing, "event_location")
	}
	if strings.TrimSpace(req.Attendees) == "" {
		missing = append(missing, "attendees")
	}
	if req.HowManyAttended <= 0 {
		missing = append(missing, "how_many_attended")
	}
	if req.EventStartDate == nil {
		missing = append(missing, "event_start_date")
	}
	if req.EventEndDate == nil {
		missing = append(missing, "event_end_date")
	}
	if strings.TrimSpace(req.PrimaryObjective) == "" {
		missing = append(missing, "primary_objective")
	}
	if len(req.CorporatePriorities.Normalize()) == 0 {
		missing = append(missing, "corporate_priorities")
	}
	if strings.TrimSpace(req.KnowledgeSharingPlan) == "" {
		missing = append(missing, "knowledge_sharing_plan")
	}
	if len(missing) > 0 {
		return validationErr("please fill in all required fields", missing...)
	}

	if req.EventEndDate.Before(req.EventStartDate.Time) {
		return validationErr("event end date must not be before the start date", "event_end_date")
	}
	return nil
}
