package lark

import (
	"context"
	"fmt"

	larkcontact "github.com/larksuite/oapi-sdk-go/v3/service/contact/v3"
	"go.uber.org/zap"
)

const (
	userIDType       = "open_id"
	departmentIDType = "open_department_id"
	departmentPage   = 50
)

// ContactUser is the subset of a contact record the directory needs
type ContactUser struct {
	OpenID        string
	Name          string
	Email         string
	LeaderOpenID  string
	DepartmentIDs []string
}

// ContactAPI handles Lark contact (v3) lookups
type ContactAPI struct {
	client *SDKClient
	logger *zap.Logger
}

// NewContactAPI creates a new contact API handler
func NewContactAPI(client *SDKClient, logger *zap.Logger) *ContactAPI {
	return &ContactAPI{
		client: client,
		logger: logger,
	}
}

// FindOpenIDByEmail resolves an email address to an open_id, or "" when unknown
func (a *ContactAPI) FindOpenIDByEmail(ctx context.Context, email string) (string, error) {
	req := larkcontact.NewBatchGetIdUserReqBuilder().
		UserIdType(userIDType).
		Body(larkcontact.NewBatchGetIdUserReqBodyBuilder().
			Emails([]string{email}).
			Build()).
		Build()

	resp, err := a.client.client.Contact.User.BatchGetId(ctx, req)
	if err != nil {
		a.logger.Error("Failed to resolve user by email", zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("failed to resolve user: %w", err)
	}
	if !resp.Success() {
		a.logger.Error("API returned failure",
			zap.String("email", email),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	if resp.Data == nil {
		return "", nil
	}
	for _, u := range resp.Data.UserList {
		if u != nil && u.UserId != nil && *u.UserId != "" {
			return *u.UserId, nil
		}
	}
	return "", nil
}

// GetUser fetches a user by open_id
func (a *ContactAPI) GetUser(ctx context.Context, openID string) (*ContactUser, error) {
	req := larkcontact.NewGetUserReqBuilder().
		UserId(openID).
		UserIdType(userIDType).
		DepartmentIdType(departmentIDType).
		Build()

	resp, err := a.client.client.Contact.User.Get(ctx, req)
	if err != nil {
		a.logger.Error("Failed to get user", zap.String("open_id", openID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !resp.Success() {
		a.logger.Error("API returned failure",
			zap.String("open_id", openID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return nil, fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	if resp.Data == nil || resp.Data.User == nil {
		return nil, nil
	}
	return toContactUser(resp.Data.User), nil
}

// ListDepartmentUsers returns every direct member of a department, following pagination
func (a *ContactAPI) ListDepartmentUsers(ctx context.Context, departmentID string) ([]*ContactUser, error) {
	var (
		users     []*ContactUser
		pageToken string
	)

	for {
		builder := larkcontact.NewFindByDepartmentUserReqBuilder().
			UserIdType(userIDType).
			DepartmentIdType(departmentIDType).
			DepartmentId(departmentID).
			PageSize(departmentPage)
		if pageToken != "" {
			builder = builder.PageToken(pageToken)
		}

		resp, err := a.client.client.Contact.User.FindByDepartment(ctx, builder.Build())
		if err != nil {
			a.logger.Error("Failed to list department users", zap.String("department_id", departmentID), zap.Error(err))
			return nil, fmt.Errorf("failed to list department users: %w", err)
		}
		if !resp.Success() {
			a.logger.Error("API returned failure",
				zap.String("department_id", departmentID),
				zap.Int("code", resp.Code),
				zap.String("msg", resp.Msg))
			return nil, fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
		}
		if resp.Data == nil {
			return users, nil
		}

		for _, u := range resp.Data.Items {
			if u != nil {
				users = append(users, toContactUser(u))
			}
		}

		if resp.Data.HasMore == nil || !*resp.Data.HasMore || resp.Data.PageToken == nil {
			return users, nil
		}
		pageToken = *resp.Data.PageToken
	}
}

// ListSubDepartments returns the open_department_ids of every department below
// departmentID, at any depth, following pagination
func (a *ContactAPI) ListSubDepartments(ctx context.Context, departmentID string) ([]string, error) {
	var (
		ids       []string
		pageToken string
	)

	for {
		builder := larkcontact.NewChildrenDepartmentReqBuilder().
			DepartmentId(departmentID).
			DepartmentIdType(departmentIDType).
			UserIdType(userIDType).
			FetchChild(true).
			PageSize(departmentPage)
		if pageToken != "" {
			builder = builder.PageToken(pageToken)
		}

		resp, err := a.client.client.Contact.Department.Children(ctx, builder.Build())
		if err != nil {
			a.logger.Error("Failed to list sub-departments", zap.String("department_id", departmentID), zap.Error(err))
			return nil, fmt.Errorf("failed to list sub-departments: %w", err)
		}
		if !resp.Success() {
			a.logger.Error("API returned failure",
				zap.String("department_id", departmentID),
				zap.Int("code", resp.Code),
				zap.String("msg", resp.Msg))
			return nil, fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
		}
		if resp.Data == nil {
			return ids, nil
		}

		for _, dept := range resp.Data.Items {
			if dept != nil && derefString(dept.OpenDepartmentId) != "" {
				ids = append(ids, *dept.OpenDepartmentId)
			}
		}

		if resp.Data.HasMore == nil || !*resp.Data.HasMore || resp.Data.PageToken == nil {
			return ids, nil
		}
		pageToken = *resp.Data.PageToken
	}
}

func toContactUser(u *larkcontact.User) *ContactUser {
	email := derefString(u.Email)
	if email == "" {
		email = derefString(u.EnterpriseEmail)
	}
	return &ContactUser{
		OpenID:        derefString(u.OpenId),
		Name:          derefString(u.Name),
		Email:         email,
		LeaderOpenID:  derefString(u.LeaderUserId),
		DepartmentIDs: u.DepartmentIds,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
