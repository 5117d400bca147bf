package access

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/conference-requests/internal/domain/entity"
)

type mockDirectory struct {
	getManagerFunc       func(ctx context.Context, email string) (*entity.Person, error)
	getDirectReportsFunc func(ctx context.Context, email string) ([]entity.Person, error)
	managerCalls         int
	reportsCalls         int
}

func (m *mockDirectory) GetManager(ctx context.Context, email string) (*entity.Person, error) {
	m.managerCalls++
	if m.getManagerFunc != nil {
		return m.getManagerFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockDirectory) GetDirectReports(ctx context.Context, email string) ([]entity.Person, error) {
	m.reportsCalls++
	if m.getDirectReportsFunc != nil {
		return m.getDirectReportsFunc(ctx, email)
	}
	return nil, nil
}

type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

func TestIsInRole(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		allowList string
		want      bool
	}{
		{"trimmed and case-insensitive", "bob@x.com", " Alice@x.com ; BOB@x.com ", true},
		{"empty list", "bob@x.com", "", false},
		{"empty email", "", "a@x.com", false},
		{"upper-case email", "ALICE@X.COM", "alice@x.com", true},
		{"empty entries ignored", "bob@x.com", ";;alice@x.com;;", false},
		{"prefix is not a match", "bob@x.co", "bob@x.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInRole(tt.email, tt.allowList))
		})
	}
}

func TestParseAllowList(t *testing.T) {
	list := ParseAllowList(" A@x.com ;; b@X.com;")
	assert.Equal(t, AllowList{"a@x.com", "b@x.com"}, list)
	assert.Equal(t, "a@x.com;b@x.com", list.String())
	assert.Empty(t, ParseAllowList(""))
}

func TestSession_CachesSuccessfulLookups(t *testing.T) {
	dir := &mockDirectory{
		getManagerFunc: func(ctx context.Context, email string) (*entity.Person, error) {
			assert.Equal(t, "alice@contoso.com", email)
			return &entity.Person{DisplayName: "Mary Manager", Email: "mary@contoso.com"}, nil
		},
		getDirectReportsFunc: func(ctx context.Context, email string) ([]entity.Person, error) {
			return []entity.Person{{DisplayName: "Rick", Email: "rick@contoso.com"}}, nil
		},
	}
	s := NewSession(entity.User{Email: "alice@contoso.com"}, dir, &mockLogger{})
	ctx := context.Background()

	assert.Equal(t, "mary@contoso.com", s.ManagerEmail(ctx))
	assert.Equal(t, "mary@contoso.com", s.ManagerEmail(ctx))
	assert.Len(t, s.DirectReports(ctx), 1)
	assert.Len(t, s.DirectReports(ctx), 1)

	assert.Equal(t, 1, dir.managerCalls)
	assert.Equal(t, 1, dir.reportsCalls)

	s.Invalidate()
	s.Manager(ctx)
	s.DirectReports(ctx)
	assert.Equal(t, 2, dir.managerCalls)
	assert.Equal(t, 2, dir.reportsCalls)
}

func TestSession_DegradesOnDirectoryFailure(t *testing.T) {
	dir := &mockDirectory{
		getManagerFunc: func(ctx context.Context, email string) (*entity.Person, error) {
			return nil, errors.New("directory unavailable")
		},
		getDirectReportsFunc: func(ctx context.Context, email string) ([]entity.Person, error) {
			return nil, errors.New("directory unavailable")
		},
	}
	logger := &mockLogger{}
	s := NewSession(entity.User{Email: "alice@contoso.com"}, dir, logger)
	ctx := context.Background()

	assert.Nil(t, s.Manager(ctx))
	assert.Equal(t, "", s.ManagerEmail(ctx))

	reports := s.DirectReports(ctx)
	require.NotNil(t, reports)
	assert.Empty(t, reports)

	// Failures are retried on the next call
	assert.Equal(t, 2, dir.managerCalls)
	assert.Len(t, logger.warns, 3)
}

func TestSession_NoManagerIsCached(t *testing.T) {
	dir := &mockDirectory{}
	s := NewSession(entity.User{Email: "ceo@contoso.com"}, dir, &mockLogger{})

	assert.Nil(t, s.Manager(context.Background()))
	assert.Nil(t, s.Manager(context.Background()))
	assert.Equal(t, 1, dir.managerCalls)
}

func TestResolver_Resolve(t *testing.T) {
	resolver := NewResolver("od@contoso.com", "acct@contoso.com; od@contoso.com")
	dir := &mockDirectory{
		getDirectReportsFunc: func(ctx context.Context, email string) ([]entity.Person, error) {
			if email == "mgr@contoso.com" {
				return []entity.Person{{Email: "alice@contoso.com"}}, nil
			}
			return nil, nil
		},
	}
	ctx := context.Background()

	roles := resolver.Resolve(ctx, NewSession(entity.User{Email: "OD@contoso.com"}, dir, &mockLogger{}))
	assert.Equal(t, Roles{IsOrgDev: true, IsAccounting: true}, roles)
	assert.Equal(t, ViewAccounting, roles.DefaultView())

	roles = resolver.Resolve(ctx, NewSession(entity.User{Email: "mgr@contoso.com"}, dir, &mockLogger{}))
	assert.Equal(t, Roles{IsManager: true}, roles)
	assert.Equal(t, ViewUser, roles.DefaultView())
	assert.Equal(t, []View{ViewUser, ViewManager}, roles.Views())
	assert.True(t, roles.CanOpen(ViewManager))
	assert.False(t, roles.CanOpen(ViewOrgDev))
}

func TestRoles_DefaultView(t *testing.T) {
	assert.Equal(t, ViewOrgDev, Roles{IsOrgDev: true, IsManager: true}.DefaultView())
	assert.Equal(t, ViewUser, Roles{}.DefaultView())
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("accounting")
	assert.True(t, ok)
	assert.Equal(t, ViewAccounting, v)

	_, ok = ParseView("admin")
	assert.False(t, ok)
}
