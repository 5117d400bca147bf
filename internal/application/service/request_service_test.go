package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/dispatcher"
	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/event"
	"github.com/garyjia/conference-requests/internal/domain/query"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

func seededRepo() *mockRequestRepo {
	return newMockRequestRepo(
		entity.ConferenceRequest{ID: 1, Status: domainwf.StateDraft, SubmitterEmail: alice},
		entity.ConferenceRequest{ID: 2, Status: domainwf.StatePendingManager, SubmitterEmail: alice, ManagerEmail: mary},
		entity.ConferenceRequest{ID: 3, Status: domainwf.StatePendingManager, SubmitterEmail: "bob@contoso.com", ManagerEmail: "other@contoso.com"},
		entity.ConferenceRequest{ID: 4, Status: domainwf.StatePendingOrgDev, SubmitterEmail: "bob@contoso.com", ManagerEmail: mary},
		entity.ConferenceRequest{ID: 5, Status: domainwf.StatePendingAccounting, SubmitterEmail: alice, ManagerEmail: mary},
		entity.ConferenceRequest{ID: 6, Status: domainwf.StateFullyApproved, SubmitterEmail: alice, ManagerEmail: mary, GLCode: "6100"},
	)
}

func ids(reqs []*entity.ConferenceRequest) []int64 {
	out := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ID)
	}
	return out
}

func TestRequestService_Queue(t *testing.T) {
	svc := NewRequestService(seededRepo(), newResolver(), &mockLogger{})
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
		view  access.View
		want  []int64
	}{
		{"mine", alice, access.ViewUser, []int64{1, 2, 5, 6}},
		{"manager queue only own pending", "MARY@contoso.com", access.ViewManager, []int64{2}},
		{"org dev sees all pending org dev", olga, access.ViewOrgDev, []int64{4}},
		{"accounting sees all pending accounting", aaron, access.ViewAccounting, []int64{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := svc.Queue(ctx, sessionFor(tt.email, nil), tt.view)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(reqs))
		})
	}
}

func TestRequestService_Queue_RequiresRole(t *testing.T) {
	svc := NewRequestService(seededRepo(), newResolver(), &mockLogger{})

	_, err := svc.Queue(context.Background(), sessionFor(alice, nil), access.ViewOrgDev)
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	_, err = svc.Queue(context.Background(), sessionFor(olga, nil), access.ViewAccounting)
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	_, err = svc.Queue(context.Background(), sessionFor(olga, nil), access.View("admin"))
	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestRequestService_Queue_EmptyIsNotNil(t *testing.T) {
	svc := NewRequestService(newMockRequestRepo(), newResolver(), &mockLogger{})

	reqs, err := svc.Queue(context.Background(), sessionFor(alice, nil), access.ViewUser)
	require.NoError(t, err)
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)
}

func TestRequestService_Queue_StoreError(t *testing.T) {
	repo := seededRepo()
	repo.listErr = errors.New("disk full")
	svc := NewRequestService(repo, newResolver(), &mockLogger{})

	_, err := svc.Queue(context.Background(), sessionFor(alice, nil), access.ViewUser)
	assert.ErrorIs(t, err, workflow.ErrStore)
}

func TestRequestService_Get(t *testing.T) {
	svc := NewRequestService(seededRepo(), newResolver(), &mockLogger{})
	ctx := context.Background()

	_, err := svc.Get(ctx, sessionFor(alice, nil), 2)
	assert.NoError(t, err, "submitter")

	_, err = svc.Get(ctx, sessionFor(mary, nil), 2)
	assert.NoError(t, err, "manager of record")

	_, err = svc.Get(ctx, sessionFor(olga, nil), 3)
	assert.NoError(t, err, "org dev approver")

	_, err = svc.Get(ctx, sessionFor("bob@contoso.com", nil), 2)
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	_, err = svc.Get(ctx, sessionFor(alice, nil), 404)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestRequestService_List(t *testing.T) {
	repo := seededRepo()
	svc := NewRequestService(repo, newResolver(), &mockLogger{})
	ctx := context.Background()

	reqs, err := svc.List(ctx, sessionFor(aaron, nil), query.And(query.Eq(query.FieldStatus, "Pending Manager Approval")))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3}, ids(reqs))

	reqs, err = svc.List(ctx, sessionFor(alice, nil), query.And(query.Eq(query.FieldSubmitterEmail, alice), query.Eq(query.FieldStatus, "Draft")))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(reqs))

	_, err = svc.List(ctx, sessionFor(alice, nil), query.And(query.Eq(query.FieldStatus, "Draft")))
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	_, err = svc.List(ctx, sessionFor(aaron, nil), query.And(query.Eq(query.Field("GLCode"), "6100")))
	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestViewService_Profile(t *testing.T) {
	dir := &mockDirectory{
		manager: &entity.Person{DisplayName: "Boss", Email: "boss@contoso.com"},
		reports: map[string][]entity.Person{olga: {{Email: alice}}},
	}
	svc := NewViewService(NewRequestService(seededRepo(), newResolver(), &mockLogger{}), newResolver())

	profile := svc.Profile(context.Background(), sessionFor(olga, dir))

	assert.Equal(t, olga, profile.User.Email)
	assert.Equal(t, access.Roles{IsManager: true, IsOrgDev: true}, profile.Roles)
	assert.Equal(t, access.ViewOrgDev, profile.DefaultView)
	assert.Equal(t, []access.View{access.ViewUser, access.ViewManager, access.ViewOrgDev}, profile.Views)
	require.NotNil(t, profile.Manager)
	assert.Equal(t, "boss@contoso.com", profile.Manager.Email)
}

func TestViewService_View(t *testing.T) {
	dir := &mockDirectory{reports: map[string][]entity.Person{mary: {{Email: alice}}}}
	svc := NewViewService(NewRequestService(seededRepo(), newResolver(), &mockLogger{}), newResolver())
	ctx := context.Background()

	state, err := svc.View(ctx, sessionFor(mary, dir), access.ViewManager)
	require.NoError(t, err)
	mv, ok := state.(ManagerView)
	require.True(t, ok, "got %T", state)
	assert.Equal(t, access.ViewManager, mv.Kind())
	assert.Len(t, mv.DirectReports, 1)
	assert.Equal(t, []int64{2}, ids(mv.Pending))

	state, err = svc.View(ctx, sessionFor(alice, dir), access.ViewUser)
	require.NoError(t, err)
	uv, ok := state.(UserView)
	require.True(t, ok)
	assert.Len(t, uv.MyRequests, 4)

	_, err = svc.View(ctx, sessionFor(alice, dir), access.ViewManager)
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	state, err = svc.View(ctx, sessionFor(aaron, dir), access.ViewAccounting)
	require.NoError(t, err)
	assert.IsType(t, AccountingView{}, state)
}

func TestAttachmentService_Attach(t *testing.T) {
	repo := seededRepo()
	atts := &mockAttachmentRepo{}
	storage := newMockFileStorage()

	var (
		mu    sync.Mutex
		added []*event.Event
	)
	d := dispatcher.NewDispatcher()
	d.Subscribe(event.TypeAttachmentAdded, "recorder", func(ctx context.Context, evt *event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		added = append(added, evt)
		return nil
	})
	svc := NewAttachmentService(NewRequestService(repo, newResolver(), &mockLogger{}), repo, atts, storage, d, 1024, &mockLogger{})

	saved, err := svc.Attach(context.Background(), sessionFor(alice, nil), 2, []entity.AttachmentFile{
		{FileName: "../../agenda.pdf", Content: []byte("pdf"), MimeType: "application/pdf", Size: 3},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)

	att := saved[0]
	assert.Equal(t, "agenda.pdf", att.FileName)
	assert.Equal(t, int64(2), att.RequestID)
	assert.Equal(t, alice, att.UploadedBy)
	assert.Contains(t, att.FilePath, "2/")
	assert.True(t, storage.Exists(context.Background(), att.FilePath))

	listed, err := svc.List(context.Background(), sessionFor(mary, nil), 2)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, d.Close())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, added, 1)
	assert.Equal(t, int64(2), added[0].RequestID)
	assert.Equal(t, alice, added[0].Actor)
	assert.Equal(t, "agenda.pdf", added[0].GetPayloadString(event.KeyFileName))
}

func TestAttachmentService_Attach_Rejections(t *testing.T) {
	repo := seededRepo()
	storage := newMockFileStorage()
	svc := NewAttachmentService(NewRequestService(repo, newResolver(), &mockLogger{}), repo, &mockAttachmentRepo{}, storage, nil, 10, &mockLogger{})
	ctx := context.Background()
	file := []entity.AttachmentFile{{FileName: "a.txt", Content: []byte("x"), Size: 1}}

	_, err := svc.Attach(ctx, sessionFor("bob@contoso.com", nil), 2, file)
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	_, err = svc.Attach(ctx, sessionFor(alice, nil), 6, file)
	assert.ErrorIs(t, err, workflow.ErrValidation, "terminal request")

	_, err = svc.Attach(ctx, sessionFor(alice, nil), 2, []entity.AttachmentFile{{FileName: "big.bin", Size: 11}})
	assert.ErrorIs(t, err, workflow.ErrValidation, "over size limit")

	_, err = svc.Attach(ctx, sessionFor(alice, nil), 2, nil)
	assert.ErrorIs(t, err, workflow.ErrValidation)

	assert.Empty(t, storage.files)
}

func TestAttachmentService_Attach_RemovesFileWhenRecordFails(t *testing.T) {
	repo := seededRepo()
	storage := newMockFileStorage()
	atts := &mockAttachmentRepo{createErr: errors.New("constraint failed")}
	svc := NewAttachmentService(NewRequestService(repo, newResolver(), &mockLogger{}), repo, atts, storage, nil, 0, &mockLogger{})

	_, err := svc.Attach(context.Background(), sessionFor(alice, nil), 1, []entity.AttachmentFile{{FileName: "a.txt", Content: []byte("x")}})

	assert.ErrorIs(t, err, workflow.ErrStore)
	assert.Len(t, storage.deleted, 1)
	assert.Empty(t, storage.files)
}

func TestAttachmentService_Attach_IsAllOrNothing(t *testing.T) {
	repo := seededRepo()
	storage := newMockFileStorage()
	atts := &mockAttachmentRepo{failCreateAt: 2, createErr: errors.New("disk full")}

	var dispatched int
	d := dispatcher.NewDispatcher()
	d.Subscribe(event.TypeAttachmentAdded, "counter", func(ctx context.Context, evt *event.Event) error {
		dispatched++
		return nil
	})
	svc := NewAttachmentService(NewRequestService(repo, newResolver(), &mockLogger{}), repo, atts, storage, d, 0, &mockLogger{})

	saved, err := svc.Attach(context.Background(), sessionFor(alice, nil), 2, []entity.AttachmentFile{
		{FileName: "agenda.pdf", Content: []byte("pdf")},
		{FileName: "quote.pdf", Content: []byte("quote")},
		{FileName: "hotel.pdf", Content: []byte("hotel")},
	})

	assert.ErrorIs(t, err, workflow.ErrStore)
	assert.Nil(t, saved)
	assert.Empty(t, storage.files)
	assert.Len(t, storage.deleted, 2)
	assert.Empty(t, atts.items)

	require.NoError(t, d.Close())
	assert.Zero(t, dispatched)
}

func TestAttachmentService_Open(t *testing.T) {
	repo := seededRepo()
	atts := &mockAttachmentRepo{}
	storage := newMockFileStorage()
	svc := NewAttachmentService(NewRequestService(repo, newResolver(), &mockLogger{}), repo, atts, storage, nil, 0, &mockLogger{})
	ctx := context.Background()

	saved, err := svc.Attach(ctx, sessionFor(alice, nil), 2, []entity.AttachmentFile{{FileName: "agenda.pdf", Content: []byte("pdf")}})
	require.NoError(t, err)
	id := saved[0].ID

	att, content, err := svc.Open(ctx, sessionFor(mary, nil), 2, id)
	require.NoError(t, err)
	assert.Equal(t, "agenda.pdf", att.FileName)
	assert.Equal(t, []byte("pdf"), content)

	_, _, err = svc.Open(ctx, sessionFor("bob@contoso.com", nil), 2, id)
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)

	_, _, err = svc.Open(ctx, sessionFor(alice, nil), 1, id)
	assert.ErrorIs(t, err, port.ErrNotFound, "attachment belongs to another request")

	_, _, err = svc.Open(ctx, sessionFor(alice, nil), 2, 99)
	assert.ErrorIs(t, err, port.ErrNotFound)

	delete(storage.files, att.FilePath)
	_, _, err = svc.Open(ctx, sessionFor(alice, nil), 2, id)
	assert.ErrorIs(t, err, workflow.ErrStore)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "report.xlsx", sanitizeFileName(`C:\Users\alice\report.xlsx`))
	assert.Equal(t, "a_b.txt", sanitizeFileName("a:b.txt"))
	assert.Equal(t, "attachment", sanitizeFileName(".."))
	assert.Equal(t, "attachment", sanitizeFileName(""))
}

func TestReportService_ExportApproved(t *testing.T) {
	writer := &mockReportWriter{}
	repo := seededRepo()
	repo.requests[6].TotalEstimatedBudget = 1420.5
	logger := &mockLogger{}
	svc := NewReportService(repo, newResolver(), writer, logger)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportApproved(context.Background(), sessionFor(aaron, nil), &buf))
	assert.Equal(t, "report", buf.String())
	assert.Equal(t, []int64{6}, ids(writer.written))
	assert.Equal(t, "approved-requests.test", svc.FileName())
	assert.Equal(t, "$1420.50", logger.field("Approved report exported", "total"))

	err := svc.ExportApproved(context.Background(), sessionFor(olga, nil), &buf)
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)
}
