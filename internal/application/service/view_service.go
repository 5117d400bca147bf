package service

import (
	"context"
	"fmt"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/domain/entity"
)

// Profile summarizes the signed-in user for the landing page
type Profile struct {
	User        entity.User    `json:"user"`
	Manager     *entity.Person `json:"manager,omitempty"`
	Roles       access.Roles   `json:"roles"`
	DefaultView access.View    `json:"default_view"`
	Views       []access.View  `json:"views"`
}

// ViewState is one role view together with only that view's data
type ViewState interface {
	Kind() access.View
}

// UserView lists the user's own requests and the manager new submissions route to
type UserView struct {
	Manager    *entity.Person              `json:"manager,omitempty"`
	MyRequests []*entity.ConferenceRequest `json:"my_requests"`
}

// ManagerView lists the manager's reports and the requests waiting on them
type ManagerView struct {
	DirectReports []entity.Person             `json:"direct_reports"`
	Pending       []*entity.ConferenceRequest `json:"pending"`
}

// OrgDevView lists requests awaiting Org Dev review
type OrgDevView struct {
	Pending []*entity.ConferenceRequest `json:"pending"`
}

// AccountingView lists requests awaiting Accounting review
type AccountingView struct {
	Pending []*entity.ConferenceRequest `json:"pending"`
}

func (UserView) Kind() access.View       { return access.ViewUser }
func (ManagerView) Kind() access.View    { return access.ViewManager }
func (OrgDevView) Kind() access.View     { return access.ViewOrgDev }
func (AccountingView) Kind() access.View { return access.ViewAccounting }

// ViewService builds the role views
type ViewService interface {
	Profile(ctx context.Context, s *access.Session) *Profile
	View(ctx context.Context, s *access.Session, view access.View) (ViewState, error)
}

type viewServiceImpl struct {
	requests RequestService
	roles    *access.Resolver
}

// NewViewService creates a new ViewService
func NewViewService(requests RequestService, roles *access.Resolver) ViewService {
	return &viewServiceImpl{
		requests: requests,
		roles:    roles,
	}
}

func (v *viewServiceImpl) Profile(ctx context.Context, s *access.Session) *Profile {
	roles := v.roles.Resolve(ctx, s)
	return &Profile{
		User:        s.User(),
		Manager:     s.Manager(ctx),
		Roles:       roles,
		DefaultView: roles.DefaultView(),
		Views:       roles.Views(),
	}
}

func (v *viewServiceImpl) View(ctx context.Context, s *access.Session, view access.View) (ViewState, error) {
	roles := v.roles.Resolve(ctx, s)
	if !roles.CanOpen(view) {
		return nil, fmt.Errorf("%w: %s view", workflow.ErrUnauthorized, view)
	}

	requests, err := v.requests.Queue(ctx, s, view)
	if err != nil {
		return nil, err
	}

	switch view {
	case access.ViewUser:
		return UserView{Manager: s.Manager(ctx), MyRequests: requests}, nil
	case access.ViewManager:
		return ManagerView{DirectReports: s.DirectReports(ctx), Pending: requests}, nil
	case access.ViewOrgDev:
		return OrgDevView{Pending: requests}, nil
	default:
		return AccountingView{Pending: requests}, nil
	}
}
