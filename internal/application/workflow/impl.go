package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/dispatcher"
	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/event"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	requests   port.RequestRepository
	roles      *access.Resolver
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithClock overrides the time source used for stamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(requests port.RequestRepository, roles *access.Resolver, logger Logger, opts ...EngineOption) WorkflowEngine {
	e := &engineImpl{
		requests: requests,
		roles:    roles,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engineImpl) SaveDraft(ctx context.Context, s *access.Session, in DraftInput) (*entity.ConferenceRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user := s.User()
	req := &entity.ConferenceRequest{
		Status:         domainwf.StateDraft,
		SubmitterEmail: user.Email,
		SubmitterName:  user.DisplayName,
	}
	in.Patch().ApplyTo(req)
	req.RecalculateTotal()

	if err := e.requests.Create(ctx, req); err != nil {
		return nil, classifyStoreErr("create draft", err)
	}

	e.logger.Info("Draft saved", "request_id", req.ID, "submitter", user.Email)
	e.publish(ctx, event.NewEvent(event.TypeDraftSaved, req.ID, user.Email, nil))
	return req, nil
}

func (e *engineImpl) EditDraft(ctx context.Context, s *access.Session, id int64, in DraftInput) (*entity.ConferenceRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	current, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsSubmittedBy(s.User().Email) {
		return nil, fmt.Errorf("%w: only the submitter can edit request %d", ErrUnauthorized, id)
	}
	if _, err := e.destination(current, domainwf.TriggerSaveDraft); err != nil {
		return nil, err
	}

	patch := in.Patch()
	patch.IfStatus = domainwf.StateDraft

	updated, err := e.requests.Update(ctx, id, patch)
	if err != nil {
		return nil, classifyStoreErr("edit draft", err)
	}

	e.logger.Info("Draft updated", "request_id", id, "submitter", s.User().Email)
	e.publish(ctx, event.NewEvent(event.TypeDraftSaved, id, s.User().Email, nil))
	return updated, nil
}

func (e *engineImpl) Submit(ctx context.Context, s *access.Session, id int64, in *DraftInput) (*entity.ConferenceRequest, error) {
	if in != nil {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}
	if id == 0 {
		if in == nil {
			return nil, validationErr("request content is required")
		}
		return e.submitNew(ctx, s, *in)
	}

	current, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsSubmittedBy(s.User().Email) {
		return nil, fmt.Errorf("%w: only the submitter can submit request %d", ErrUnauthorized, id)
	}
	next, err := e.destination(current, domainwf.TriggerSubmit)
	if err != nil {
		return nil, err
	}

	var patch entity.RequestPatch
	if in != nil {
		patch = in.Patch()
	}

	// Validate the record as it will be stored
	merged := *current
	patch.ApplyTo(&merged)
	if err := validateSubmission(&merged); err != nil {
		return nil, err
	}

	managerEmail := s.ManagerEmail(ctx)
	if managerEmail == "" {
		return nil, validationErr("your manager could not be determined from the directory", "manager_email")
	}

	user := s.User()
	now := e.now()
	patch.IfStatus = domainwf.StateDraft
	patch.Status = &next
	patch.Title = entity.Ptr(merged.EventName)
	patch.SubmitterEmail = entity.Ptr(user.Email)
	patch.SubmitterName = entity.Ptr(user.DisplayName)
	patch.ManagerEmail = entity.Ptr(managerEmail)
	patch.SubmittedDate = &now
	if !patch.Costs.HasChanges() {
		// Restamp the total from the stored costs
		patch.Costs = entity.FullCostPatch(merged.Costs)
	}

	updated, err := e.requests.Update(ctx, id, patch)
	if err != nil {
		return nil, classifyStoreErr("submit request", err)
	}

	e.logger.Info("Request submitted", "request_id", id, "submitter", user.Email, "manager", managerEmail)
	e.publish(ctx, event.NewStatusChanged(id, user.Email, current.Status, next, domainwf.TriggerSubmit))
	return updated, nil
}

func (e *engineImpl) submitNew(ctx context.Context, s *access.Session, in DraftInput) (*entity.ConferenceRequest, error) {
	user := s.User()
	req := &entity.ConferenceRequest{
		Status:         domainwf.StateDraft,
		SubmitterEmail: user.Email,
		SubmitterName:  user.DisplayName,
	}
	in.Patch().ApplyTo(req)

	next, err := e.destination(req, domainwf.TriggerSubmit)
	if err != nil {
		return nil, err
	}
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	managerEmail := s.ManagerEmail(ctx)
	if managerEmail == "" {
		return nil, validationErr("your manager could not be determined from the directory", "manager_email")
	}

	now := e.now()
	req.Status = next
	req.ManagerEmail = managerEmail
	req.SubmittedDate = &now
	req.RecalculateTotal()

	if err := e.requests.Create(ctx, req); err != nil {
		return nil, classifyStoreErr("create request", err)
	}

	e.logger.Info("Request submitted", "request_id", req.ID, "submitter", user.Email, "manager", managerEmail)
	e.publish(ctx, event.NewStatusChanged(req.ID, user.Email, domainwf.StateDraft, next, domainwf.TriggerSubmit))
	return req, nil
}

func (e *engineImpl) Approve(ctx context.Context, s *access.Session, id int64, stage domainwf.Stage, d Decision) (*entity.ConferenceRequest, error) {
	trigger := domainwf.ApproveTrigger(stage)
	if trigger == "" {
		return nil, validationErr(fmt.Sprintf("unknown approval stage %q", stage), "stage")
	}

	glCode := strings.TrimSpace(d.GLCode)
	if stage == domainwf.StageAccounting && glCode == "" {
		return nil, validationErr("a GL code is required for final approval", "gl_code")
	}

	return e.decide(ctx, s, id, stage, trigger, func(patch *entity.RequestPatch, actor string, now time.Time) {
		switch stage {
		case domainwf.StageManager:
			patch.ManagerApprovalDate = &now
		case domainwf.StageOrgDev:
			patch.OrgDevApproverEmail = entity.Ptr(actor)
			patch.OrgDevApprovalDate = &now
		case domainwf.StageAccounting:
			patch.AccountingApproverEmail = entity.Ptr(actor)
			patch.AccountingApprovalDate = &now
			patch.GLCode = entity.Ptr(glCode)
		}
	})
}

func (e *engineImpl) Deny(ctx context.Context, s *access.Session, id int64, stage domainwf.Stage, d Decision) (*entity.ConferenceRequest, error) {
	trigger := domainwf.DenyTrigger(stage)
	if trigger == "" {
		return nil, validationErr(fmt.Sprintf("unknown approval stage %q", stage), "stage")
	}

	reason := strings.TrimSpace(d.Reason)
	if reason == "" {
		return nil, validationErr("a reason is required to deny a request", "reason")
	}

	return e.decide(ctx, s, id, stage, trigger, func(patch *entity.RequestPatch, actor string, now time.Time) {
		switch stage {
		case domainwf.StageManager:
			patch.ManagerDenialReason = entity.Ptr(reason)
			patch.ManagerApprovalDate = &now
		case domainwf.StageOrgDev:
			patch.OrgDevDenialReason = entity.Ptr(reason)
			patch.OrgDevApproverEmail = entity.Ptr(actor)
			patch.OrgDevApprovalDate = &now
		case domainwf.StageAccounting:
			patch.AccountingDenialReason = entity.Ptr(reason)
			patch.AccountingApproverEmail = entity.Ptr(actor)
			patch.AccountingApprovalDate = &now
		}
	})
}

// decide runs an approver action: role check, load, actor check, transition
// check, then one conditional update
func (e *engineImpl) decide(
	ctx context.Context,
	s *access.Session,
	id int64,
	stage domainwf.Stage,
	trigger domainwf.Trigger,
	stamp func(patch *entity.RequestPatch, actor string, now time.Time),
) (*entity.ConferenceRequest, error) {
	actor := s.User().Email

	if err := e.authorizeRole(actor, stage); err != nil {
		return nil, err
	}

	current, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if stage == domainwf.StageManager && !entity.SameEmail(current.ManagerEmail, actor) {
		return nil, fmt.Errorf("%w: %s is not the manager of record for request %d", ErrUnauthorized, actor, id)
	}

	next, err := e.destination(current, trigger)
	if err != nil {
		return nil, err
	}

	now := e.now()
	patch := entity.RequestPatch{
		IfStatus: current.Status,
		Status:   &next,
	}
	stamp(&patch, actor, now)

	updated, err := e.requests.Update(ctx, id, patch)
	if err != nil {
		return nil, classifyStoreErr("update request status", err)
	}

	e.logger.Info("Request status changed",
		"request_id", id,
		"actor", actor,
		"from", current.Status,
		"to", next,
	)

	evt := event.NewStatusChanged(id, actor, current.Status, next, trigger)
	if reason := updated.DenialReason(); next == domainwf.StateDenied && reason != "" {
		evt = evt.WithPayload(event.KeyReason, reason)
	}
	e.publish(ctx, evt)
	return updated, nil
}

// authorizeRole checks allow-list membership for the Org Dev and Accounting
// stages. The manager stage is checked against the record once it is loaded.
func (e *engineImpl) authorizeRole(actor string, stage domainwf.Stage) error {
	switch stage {
	case domainwf.StageOrgDev:
		if !e.roles.IsOrgDev(actor) {
			return fmt.Errorf("%w: %s is not an Org Dev approver", ErrUnauthorized, actor)
		}
	case domainwf.StageAccounting:
		if !e.roles.IsAccounting(actor) {
			return fmt.Errorf("%w: %s is not an Accounting approver", ErrUnauthorized, actor)
		}
	}
	return nil
}

func (e *engineImpl) load(ctx context.Context, id int64) (*entity.ConferenceRequest, error) {
	req, err := e.requests.GetByID(ctx, id)
	if err != nil {
		return nil, classifyStoreErr("load request", err)
	}
	return req, nil
}

// destination fires trigger on a machine positioned at the request's status
// and reports where it lands
func (e *engineImpl) destination(req *entity.ConferenceRequest, trigger domainwf.Trigger) (domainwf.State, error) {
	if !req.Status.IsValid() {
		return "", fmt.Errorf("%w: request %d has status %q", domainwf.ErrInvalidState, req.ID, req.Status)
	}
	m := BuildConferenceStateMachine(req.Status)
	if err := m.Fire(trigger); err != nil {
		return "", err
	}
	return m.State(), nil
}

func (e *engineImpl) publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher != nil {
		e.dispatcher.DispatchAsync(ctx, evt)
	}
}

// classifyStoreErr keeps not-found and conflict errors distinguishable and
// marks everything else as a store failure
func classifyStoreErr(op string, err error) error {
	if errors.Is(err, port.ErrNotFound) || errors.Is(err, port.ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return storeErr(op, err)
}
