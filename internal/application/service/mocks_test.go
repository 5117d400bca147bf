package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/query"
)

type mockRequestRepo struct {
	requests map[int64]*entity.ConferenceRequest
	listErr  error
	lastList query.Filter
}

func newMockRequestRepo(reqs ...entity.ConferenceRequest) *mockRequestRepo {
	m := &mockRequestRepo{requests: make(map[int64]*entity.ConferenceRequest)}
	for i := range reqs {
		r := reqs[i]
		if r.ID == 0 {
			r.ID = int64(i + 1)
		}
		m.requests[r.ID] = &r
	}
	return m
}

func (m *mockRequestRepo) List(ctx context.Context, filter query.Filter) ([]*entity.ConferenceRequest, error) {
	m.lastList = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*entity.ConferenceRequest
	for _, r := range m.requests {
		if matchesFilter(filter, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// matchesFilter mirrors the store's comparison rules: status exact, emails
// case-insensitive
func matchesFilter(filter query.Filter, r *entity.ConferenceRequest) bool {
	for _, c := range filter.Conditions {
		var got string
		switch c.Field {
		case query.FieldStatus:
			if string(r.Status) != c.Value {
				return false
			}
			continue
		case query.FieldSubmitterEmail:
			got = r.SubmitterEmail
		case query.FieldManagerEmail:
			got = r.ManagerEmail
		default:
			return false
		}
		if !strings.EqualFold(got, c.Value) {
			return false
		}
	}
	return true
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ConferenceRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return r, nil
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.ConferenceRequest) error {
	return errors.New("not used")
}

func (m *mockRequestRepo) Update(ctx context.Context, id int64, patch entity.RequestPatch) (*entity.ConferenceRequest, error) {
	return nil, errors.New("not used")
}

type mockAttachmentRepo struct {
	mu        sync.Mutex
	items     []*entity.Attachment
	createErr error
	// failCreateAt makes only the n-th Create return createErr when set
	failCreateAt int
	creates      int
	nextID       int64
}

func (m *mockAttachmentRepo) Create(ctx context.Context, att *entity.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil && (m.failCreateAt == 0 || m.creates == m.failCreateAt) {
		return m.createErr
	}
	m.nextID++
	att.ID = m.nextID
	m.items = append(m.items, att)
	return nil
}

func (m *mockAttachmentRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.items {
		if a.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return port.ErrNotFound
}

func (m *mockAttachmentRepo) GetByID(ctx context.Context, id int64) (*entity.Attachment, error) {
	for _, a := range m.items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, port.ErrNotFound
}

func (m *mockAttachmentRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Attachment, error) {
	var out []*entity.Attachment
	for _, a := range m.items {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockFileStorage struct {
	files   map[string][]byte
	deleted []string
	saveErr error
}

func newMockFileStorage() *mockFileStorage {
	return &mockFileStorage{files: make(map[string][]byte)}
}

func (m *mockFileStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.files[path] = content
	return nil
}

func (m *mockFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, port.ErrNotFound
	}
	return content, nil
}

func (m *mockFileStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *mockFileStorage) Delete(ctx context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	delete(m.files, path)
	return nil
}

func (m *mockFileStorage) GetFullPath(relativePath string) string {
	return "/data/" + relativePath
}

type mockReportWriter struct {
	written []*entity.ConferenceRequest
}

func (m *mockReportWriter) WriteApproved(ctx context.Context, w io.Writer, requests []*entity.ConferenceRequest) error {
	m.written = requests
	_, err := io.WriteString(w, "report")
	return err
}

func (m *mockReportWriter) ContentType() string   { return "application/test" }
func (m *mockReportWriter) FileExtension() string { return ".test" }

type mockDirectory struct {
	reports map[string][]entity.Person
	manager *entity.Person
}

func (m *mockDirectory) GetManager(ctx context.Context, email string) (*entity.Person, error) {
	return m.manager, nil
}

func (m *mockDirectory) GetDirectReports(ctx context.Context, email string) ([]entity.Person, error) {
	return m.reports[email], nil
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	fields []map[string]interface{}
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)

	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	m.fields = append(m.fields, fields)
}

// field returns the value logged under key with the last info message msg
func (m *mockLogger) field(msg, key string) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.infos) - 1; i >= 0; i-- {
		if m.infos[i] == msg {
			return m.fields[i][key]
		}
	}
	return nil
}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

const (
	alice = "alice@contoso.com"
	mary  = "mary@contoso.com"
	olga  = "olga@contoso.com"
	aaron = "aaron@contoso.com"
)

func newResolver() *access.Resolver {
	return access.NewResolver(olga, aaron)
}

func sessionFor(email string, dir *mockDirectory) *access.Session {
	if dir == nil {
		dir = &mockDirectory{}
	}
	return access.NewSession(entity.User{Email: email}, dir, &mockLogger{})
}
