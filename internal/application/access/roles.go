package access

import "context"

// View identifies one of the role-specific screens
type View string

const (
	ViewUser       View = "user"
	ViewManager    View = "manager"
	ViewOrgDev     View = "orgdev"
	ViewAccounting View = "accounting"
)

// ParseView maps a path segment onto a View
func ParseView(s string) (View, bool) {
	switch v := View(s); v {
	case ViewUser, ViewManager, ViewOrgDev, ViewAccounting:
		return v, true
	default:
		return "", false
	}
}

// Roles describes what the signed-in user may act as
type Roles struct {
	IsManager    bool `json:"is_manager"`
	IsOrgDev     bool `json:"is_org_dev"`
	IsAccounting bool `json:"is_accounting"`
}

// DefaultView picks the landing view: Accounting, then Org Dev, then the
// submitter view. Managers land on the submitter view.
func (r Roles) DefaultView() View {
	switch {
	case r.IsAccounting:
		return ViewAccounting
	case r.IsOrgDev:
		return ViewOrgDev
	default:
		return ViewUser
	}
}

// Views lists the views the user may open, in navigation order
func (r Roles) Views() []View {
	views := []View{ViewUser}
	if r.IsManager {
		views = append(views, ViewManager)
	}
	if r.IsOrgDev {
		views = append(views, ViewOrgDev)
	}
	if r.IsAccounting {
		views = append(views, ViewAccounting)
	}
	return views
}

// CanOpen reports whether v is among the permitted views
func (r Roles) CanOpen(v View) bool {
	for _, allowed := range r.Views() {
		if allowed == v {
			return true
		}
	}
	return false
}

// Resolver determines roles from the configured allow lists and the directory
type Resolver struct {
	orgDev     AllowList
	accounting AllowList
}

// NewResolver creates a resolver over semicolon-delimited allow lists
func NewResolver(orgDevApprovers, accountingApprovers string) *Resolver {
	return &Resolver{
		orgDev:     ParseAllowList(orgDevApprovers),
		accounting: ParseAllowList(accountingApprovers),
	}
}

// IsOrgDev reports Org Dev allow-list membership
func (r *Resolver) IsOrgDev(email string) bool {
	return r.orgDev.Contains(email)
}

// IsAccounting reports Accounting allow-list membership
func (r *Resolver) IsAccounting(email string) bool {
	return r.accounting.Contains(email)
}

// Resolve computes the session user's roles. Manager means at least one direct report.
func (r *Resolver) Resolve(ctx context.Context, s *Session) Roles {
	email := s.User().Email
	return Roles{
		IsManager:    len(s.DirectReports(ctx)) > 0,
		IsOrgDev:     r.IsOrgDev(email),
		IsAccounting: r.IsAccounting(email),
	}
}
