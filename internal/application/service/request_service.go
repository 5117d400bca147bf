package service

import (
	"context"
	"fmt"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/query"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RequestService answers read-side questions about conference requests
type RequestService interface {
	// Get returns one request if the session user may see it
	Get(ctx context.Context, s *access.Session, id int64) (*entity.ConferenceRequest, error)

	// List runs a store filter. Approvers on an allow list may filter freely;
	// everyone else must scope the filter to themselves as submitter or manager.
	List(ctx context.Context, s *access.Session, filter query.Filter) ([]*entity.ConferenceRequest, error)

	// Queue returns the requests shown in a role's view
	Queue(ctx context.Context, s *access.Session, view access.View) ([]*entity.ConferenceRequest, error)
}

type requestServiceImpl struct {
	requests port.RequestRepository
	roles    *access.Resolver
	logger   Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(requests port.RequestRepository, roles *access.Resolver, logger Logger) RequestService {
	return &requestServiceImpl{
		requests: requests,
		roles:    roles,
		logger:   logger,
	}
}

func (s *requestServiceImpl) Get(ctx context.Context, sess *access.Session, id int64) (*entity.ConferenceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", id, err)
	}
	if !s.canRead(sess.User().Email, req) {
		return nil, fmt.Errorf("%w: request %d", workflow.ErrUnauthorized, id)
	}
	return req, nil
}

func (s *requestServiceImpl) List(ctx context.Context, sess *access.Session, filter query.Filter) ([]*entity.ConferenceRequest, error) {
	if err := filter.Validate(); err != nil {
		return nil, &workflow.ValidationError{Message: err.Error(), Fields: []string{"filter"}}
	}

	email := sess.User().Email
	if !s.isApprover(email) && !scopedTo(filter, email) {
		return nil, fmt.Errorf("%w: filter must be limited to your own requests", workflow.ErrUnauthorized)
	}

	return s.list(ctx, filter)
}

func (s *requestServiceImpl) Queue(ctx context.Context, sess *access.Session, view access.View) ([]*entity.ConferenceRequest, error) {
	email := sess.User().Email

	var filter query.Filter
	switch view {
	case access.ViewUser:
		filter = query.And(query.Eq(query.FieldSubmitterEmail, email))
	case access.ViewManager:
		filter = query.And(
			query.Eq(query.FieldStatus, string(domainwf.StatePendingManager)),
			query.Eq(query.FieldManagerEmail, email),
		)
	case access.ViewOrgDev:
		if !s.roles.IsOrgDev(email) {
			return nil, fmt.Errorf("%w: org dev queue", workflow.ErrUnauthorized)
		}
		filter = query.And(query.Eq(query.FieldStatus, string(domainwf.StatePendingOrgDev)))
	case access.ViewAccounting:
		if !s.roles.IsAccounting(email) {
			return nil, fmt.Errorf("%w: accounting queue", workflow.ErrUnauthorized)
		}
		filter = query.And(query.Eq(query.FieldStatus, string(domainwf.StatePendingAccounting)))
	default:
		return nil, &workflow.ValidationError{Message: fmt.Sprintf("unknown view %q", view), Fields: []string{"view"}}
	}

	return s.list(ctx, filter)
}

func (s *requestServiceImpl) list(ctx context.Context, filter query.Filter) ([]*entity.ConferenceRequest, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "filter", filter.String(), "error", err)
		return nil, fmt.Errorf("%w: list requests: %w", workflow.ErrStore, err)
	}
	if requests == nil {
		requests = []*entity.ConferenceRequest{}
	}
	return requests, nil
}

func (s *requestServiceImpl) isApprover(email string) bool {
	return s.roles.IsOrgDev(email) || s.roles.IsAccounting(email)
}

// canRead allows the submitter, the manager of record and allow-listed approvers
func (s *requestServiceImpl) canRead(email string, req *entity.ConferenceRequest) bool {
	return req.IsSubmittedBy(email) || entity.SameEmail(req.ManagerEmail, email) || s.isApprover(email)
}

// scopedTo reports whether the filter pins the submitter or manager to email
func scopedTo(filter query.Filter, email string) bool {
	for _, c := range filter.Conditions {
		if (c.Field == query.FieldSubmitterEmail || c.Field == query.FieldManagerEmail) && entity.SameEmail(c.Value, email) {
			return true
		}
	}
	return false
}
