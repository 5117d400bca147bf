package lark

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
)

// ErrUnknownUser is returned when an email address has no contact record
var ErrUnknownUser = errors.New("user not found in directory")

// contactLookup is the part of ContactAPI the directory depends on
type contactLookup interface {
	FindOpenIDByEmail(ctx context.Context, email string) (string, error)
	GetUser(ctx context.Context, openID string) (*ContactUser, error)
	ListDepartmentUsers(ctx context.Context, departmentID string) ([]*ContactUser, error)
	ListSubDepartments(ctx context.Context, departmentID string) ([]string, error)
}

// Directory implements port.DirectoryClient on the Lark contact directory.
// The manager is the contact's leader; direct reports are the members of the
// user's departments, and of every department below them, whose leader is the user.
type Directory struct {
	contacts contactLookup
	logger   *zap.Logger
}

// NewDirectory creates a directory backed by the Lark contact API
func NewDirectory(contacts *ContactAPI, logger *zap.Logger) port.DirectoryClient {
	return &Directory{
		contacts: contacts,
		logger:   logger,
	}
}

// GetManager returns the user's leader, or nil when none is set
func (d *Directory) GetManager(ctx context.Context, email string) (*entity.Person, error) {
	user, err := d.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.LeaderOpenID == "" {
		return nil, nil
	}

	leader, err := d.contacts.GetUser(ctx, user.LeaderOpenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get manager of %s: %w", email, err)
	}
	if leader == nil {
		return nil, nil
	}

	person := toPerson(leader)
	return &person, nil
}

// GetDirectReports returns contacts whose leader is the user
func (d *Directory) GetDirectReports(ctx context.Context, email string) ([]entity.Person, error) {
	user, err := d.lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	depts, err := d.departmentTree(ctx, user.DepartmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports of %s: %w", email, err)
	}

	reports := make([]entity.Person, 0)
	seen := make(map[string]bool)
	for _, dept := range depts {
		members, err := d.contacts.ListDepartmentUsers(ctx, dept)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports of %s: %w", email, err)
		}
		for _, m := range members {
			if m.LeaderOpenID != user.OpenID || m.OpenID == user.OpenID || seen[m.OpenID] {
				continue
			}
			seen[m.OpenID] = true
			reports = append(reports, toPerson(m))
		}
	}

	d.logger.Debug("Resolved direct reports",
		zap.String("email", email),
		zap.Int("count", len(reports)))
	return reports, nil
}

// departmentTree expands roots with all their sub-departments, each listed once
func (d *Directory) departmentTree(ctx context.Context, roots []string) ([]string, error) {
	var depts []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			depts = append(depts, id)
		}
	}

	for _, root := range roots {
		add(root)
		children, err := d.contacts.ListSubDepartments(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			add(child)
		}
	}
	return depts, nil
}

func (d *Directory) lookup(ctx context.Context, email string) (*ContactUser, error) {
	openID, err := d.contacts.FindOpenIDByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if openID == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}

	user, err := d.contacts.GetUser(ctx, openID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}
	return user, nil
}

func toPerson(u *ContactUser) entity.Person {
	return entity.Person{
		ID:          u.OpenID,
		DisplayName: u.Name,
		Email:       u.Email,
	}
}
