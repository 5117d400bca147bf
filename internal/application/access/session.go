package access

import (
	"context"
	"sync"

	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Session holds the signed-in user and caches their directory lookups.
// Successful lookups are cached until Invalidate; failures are not cached.
type Session struct {
	user      entity.User
	directory port.DirectoryClient
	logger    Logger

	mu            sync.Mutex
	manager       *entity.Person
	managerLoaded bool
	reports       []entity.Person
	reportsLoaded bool
}

// NewSession creates a session for user backed by the directory
func NewSession(user entity.User, directory port.DirectoryClient, logger Logger) *Session {
	return &Session{
		user:      user,
		directory: directory,
		logger:    logger,
	}
}

// User returns the signed-in identity
func (s *Session) User() entity.User {
	return s.user
}

// Manager returns the user's manager, or nil when the directory has none or fails
func (s *Session) Manager(ctx context.Context) *entity.Person {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.managerLoaded {
		return s.manager
	}

	manager, err := s.directory.GetManager(ctx, s.user.Email)
	if err != nil {
		s.logger.Warn("Directory manager lookup failed",
			"user", s.user.Email,
			"error", err,
		)
		return nil
	}

	s.manager = manager
	s.managerLoaded = true
	return manager
}

// ManagerEmail returns the manager's address, or "" when none is resolvable
func (s *Session) ManagerEmail(ctx context.Context) string {
	if m := s.Manager(ctx); m != nil {
		return m.Email
	}
	return ""
}

// DirectReports returns the user's reports, or an empty slice when the directory fails
func (s *Session) DirectReports(ctx context.Context) []entity.Person {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reportsLoaded {
		return s.reports
	}

	reports, err := s.directory.GetDirectReports(ctx, s.user.Email)
	if err != nil {
		s.logger.Warn("Directory reports lookup failed",
			"user", s.user.Email,
			"error", err,
		)
		return []entity.Person{}
	}
	if reports == nil {
		reports = []entity.Person{}
	}

	s.reports = reports
	s.reportsLoaded = true
	return reports
}

// Invalidate drops cached directory results
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manager = nil
	s.managerLoaded = false
	s.reports = nil
	s.reportsLoaded = false
}
