package entity

import (
	"time"

	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// CostPatch carries changed cost fields; nil means unchanged
type CostPatch struct {
	Registration        *float64 `json:"registration_cost,omitempty"`
	Airfare             *float64 `json:"airfare_cost,omitempty"`
	Lodging             *float64 `json:"lodging_cost,omitempty"`
	MeetingRoomRental   *float64 `json:"meeting_room_rental_cost,omitempty"`
	CarRental           *float64 `json:"car_rental_cost,omitempty"`
	TravelMealAllowance *float64 `json:"travel_meal_allowance_cost,omitempty"`
	ConferenceMeals     *float64 `json:"conference_meals_cost,omitempty"`
	Other               *float64 `json:"other_cost,omitempty"`
}

// HasChanges reports whether any cost field is set
func (p CostPatch) HasChanges() bool {
	return p.Registration != nil || p.Airfare != nil || p.Lodging != nil ||
		p.MeetingRoomRental != nil || p.CarRental != nil || p.TravelMealAllowance != nil ||
		p.ConferenceMeals != nil || p.Other != nil
}

// Apply merges the changed fields over c
func (p CostPatch) Apply(c Costs) Costs {
	set(&c.Registration, p.Registration)
	set(&c.Airfare, p.Airfare)
	set(&c.Lodging, p.Lodging)
	set(&c.MeetingRoomRental, p.MeetingRoomRental)
	set(&c.CarRental, p.CarRental)
	set(&c.TravelMealAllowance, p.TravelMealAllowance)
	set(&c.ConferenceMeals, p.ConferenceMeals)
	set(&c.Other, p.Other)
	return c
}

// FullCostPatch returns a patch that sets every cost field to the values in c
func FullCostPatch(c Costs) CostPatch {
	return CostPatch{
		Registration:        Ptr(c.Registration),
		Airfare:             Ptr(c.Airfare),
		Lodging:             Ptr(c.Lodging),
		MeetingRoomRental:   Ptr(c.MeetingRoomRental),
		CarRental:           Ptr(c.CarRental),
		TravelMealAllowance: Ptr(c.TravelMealAllowance),
		ConferenceMeals:     Ptr(c.ConferenceMeals),
		Other:               Ptr(c.Other),
	}
}

// RequestPatch is a partial update of a stored request. Nil fields are left
// untouched. A zero Date clears the stored date.
//
// IfStatus, when set, makes the update conditional: the store applies it only
// if the record's current status still equals IfStatus.
type RequestPatch struct {
	IfStatus domainwf.State

	Title           *string
	EventName       *string
	EventLocation   *string
	EventStartDate  *Date
	EventEndDate    *Date
	Attendees       *string
	HowManyAttended *int

	PrimaryObjective     *string
	CorporatePriorities  *Priorities
	KnowledgeSharingPlan *string
	PreviouslyAttended   *string
	AdditionalComments   *string

	Costs CostPatch

	Status         *domainwf.State
	SubmitterEmail *string
	SubmitterName  *string
	ManagerEmail   *string

	ManagerApprovalDate *time.Time
	ManagerDenialReason *string

	OrgDevApproverEmail *string
	OrgDevApprovalDate  *time.Time
	OrgDevDenialReason  *string

	AccountingApproverEmail *string
	AccountingApprovalDate  *time.Time
	AccountingDenialReason  *string
	GLCode                  *string

	SubmittedDate *time.Time
}

// ApplyTo merges the patch into r and recomputes the total when costs changed.
// IfStatus is not checked here; that is the store's job.
func (p RequestPatch) ApplyTo(r *ConferenceRequest) {
	set(&r.Title, p.Title)
	set(&r.EventName, p.EventName)
	set(&r.EventLocation, p.EventLocation)
	setDate(&r.EventStartDate, p.EventStartDate)
	setDate(&r.EventEndDate, p.EventEndDate)
	set(&r.Attendees, p.Attendees)
	set(&r.HowManyAttended, p.HowManyAttended)

	set(&r.PrimaryObjective, p.PrimaryObjective)
	if p.CorporatePriorities != nil {
		r.CorporatePriorities = p.CorporatePriorities.Normalize()
	}
	set(&r.KnowledgeSharingPlan, p.KnowledgeSharingPlan)
	set(&r.PreviouslyAttended, p.PreviouslyAttended)
	set(&r.AdditionalComments, p.AdditionalComments)

	if p.Costs.HasChanges() {
		r.Costs = p.Costs.Apply(r.Costs)
		r.RecalculateTotal()
	}

	set(&r.Status, p.Status)
	set(&r.SubmitterEmail, p.SubmitterEmail)
	set(&r.SubmitterName, p.SubmitterName)
	set(&r.ManagerEmail, p.ManagerEmail)

	setTime(&r.ManagerApprovalDate, p.ManagerApprovalDate)
	set(&r.ManagerDenialReason, p.ManagerDenialReason)

	set(&r.OrgDevApproverEmail, p.OrgDevApproverEmail)
	setTime(&r.OrgDevApprovalDate, p.OrgDevApprovalDate)
	set(&r.OrgDevDenialReason, p.OrgDevDenialReason)

	set(&r.AccountingApproverEmail, p.AccountingApproverEmail)
	setTime(&r.AccountingApprovalDate, p.AccountingApprovalDate)
	set(&r.AccountingDenialReason, p.AccountingDenialReason)
	set(&r.GLCode, p.GLCode)

	setTime(&r.SubmittedDate, p.SubmittedDate)
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTime(dst **time.Time, src *time.Time) {
	if src != nil {
		t := *src
		*dst = &t
	}
}

func setDate(dst **Date, src *Date) {
	if src == nil {
		return
	}
	if src.IsZero() {
		*dst = nil
		return
	}
	d := *src
	*dst = &d
}
