// Package directory provides a configuration-backed directory for local development
package directory

import (
	"context"
	"strings"

	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
)

// Entry is one person in the static org chart
type Entry struct {
	Email   string `mapstructure:"email"`
	Name    string `mapstructure:"name"`
	Manager string `mapstructure:"manager"`
}

// Static implements port.DirectoryClient from a fixed list of people
type Static struct {
	people  map[string]Entry
	reports map[string][]string
	order   []string
}

// NewStatic indexes entries by lower-cased email. Later duplicates win.
func NewStatic(entries []Entry) port.DirectoryClient {
	s := &Static{
		people:  make(map[string]Entry, len(entries)),
		reports: make(map[string][]string),
	}

	for _, e := range entries {
		key := normalize(e.Email)
		if key == "" {
			continue
		}
		if _, dup := s.people[key]; !dup {
			s.order = append(s.order, key)
		}
		s.people[key] = e
	}

	for _, key := range s.order {
		if mgr := normalize(s.people[key].Manager); mgr != "" && mgr != key {
			s.reports[mgr] = append(s.reports[mgr], key)
		}
	}
	return s
}

// GetManager returns the configured manager, or nil when none is set
func (s *Static) GetManager(ctx context.Context, email string) (*entity.Person, error) {
	e, ok := s.people[normalize(email)]
	if !ok || normalize(e.Manager) == "" {
		return nil, nil
	}

	manager := s.person(e.Manager)
	return &manager, nil
}

// GetDirectReports returns everyone whose manager is email, in configuration order
func (s *Static) GetDirectReports(ctx context.Context, email string) ([]entity.Person, error) {
	keys := s.reports[normalize(email)]
	reports := make([]entity.Person, 0, len(keys))
	for _, key := range keys {
		reports = append(reports, s.person(key))
	}
	return reports, nil
}

// person describes email, falling back to the bare address for people
// referenced only as someone's manager
func (s *Static) person(email string) entity.Person {
	e, ok := s.people[normalize(email)]
	if !ok {
		return entity.Person{ID: normalize(email), DisplayName: email, Email: strings.TrimSpace(email)}
	}
	name := e.Name
	if name == "" {
		name = e.Email
	}
	return entity.Person{ID: normalize(e.Email), DisplayName: name, Email: strings.TrimSpace(e.Email)}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
