package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/dispatcher"
	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/event"
)

// AttachmentService stores supporting documents for requests
type AttachmentService interface {
	// Attach stores files against a request. Only the submitter may attach,
	// and only while the request is not yet decided. Either every file is
	// stored or none is.
	Attach(ctx context.Context, s *access.Session, requestID int64, files []entity.AttachmentFile) ([]*entity.Attachment, error)

	// List returns the attachments of a request the user may read
	List(ctx context.Context, s *access.Session, requestID int64) ([]*entity.Attachment, error)

	// Open returns an attachment's metadata and content
	Open(ctx context.Context, s *access.Session, requestID, attachmentID int64) (*entity.Attachment, []byte, error)
}

type attachmentServiceImpl struct {
	requests    RequestService
	repo        port.RequestRepository
	attachments port.AttachmentRepository
	storage     port.FileStorage
	dispatcher  dispatcher.Dispatcher
	maxBytes    int64
	logger      Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	requests RequestService,
	repo port.RequestRepository,
	attachments port.AttachmentRepository,
	storage port.FileStorage,
	d dispatcher.Dispatcher,
	maxBytes int64,
	logger Logger,
) AttachmentService {
	return &attachmentServiceImpl{
		requests:    requests,
		repo:        repo,
		attachments: attachments,
		storage:     storage,
		dispatcher:  d,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

func (a *attachmentServiceImpl) Attach(ctx context.Context, s *access.Session, requestID int64, files []entity.AttachmentFile) ([]*entity.Attachment, error) {
	if len(files) == 0 {
		return nil, &workflow.ValidationError{Message: "no files provided", Fields: []string{"files"}}
	}
	for _, f := range files {
		if a.maxBytes > 0 && f.Size > a.maxBytes {
			return nil, &workflow.ValidationError{
				Message: fmt.Sprintf("file exceeds the %d byte limit", a.maxBytes),
				Fields:  []string{f.FileName},
			}
		}
	}

	req, err := a.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", requestID, err)
	}
	user := s.User()
	if !req.IsSubmittedBy(user.Email) {
		return nil, fmt.Errorf("%w: only the submitter can attach files", workflow.ErrUnauthorized)
	}
	if req.Status.IsTerminal() {
		return nil, &workflow.ValidationError{Message: fmt.Sprintf("cannot attach files to a request that is %s", req.Status)}
	}

	saved := make([]*entity.Attachment, 0, len(files))
	for _, f := range files {
		att, err := a.store(ctx, requestID, user.Email, f)
		if err != nil {
			a.discard(ctx, saved)
			return nil, err
		}
		saved = append(saved, att)
	}

	if a.dispatcher != nil {
		for _, att := range saved {
			a.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeAttachmentAdded, requestID, user.Email,
				map[string]interface{}{event.KeyFileName: att.FileName}))
		}
	}

	a.logger.Info("Attachments stored", "request_id", requestID, "count", len(saved))
	return saved, nil
}

// discard removes attachments stored earlier in a batch that failed part way
func (a *attachmentServiceImpl) discard(ctx context.Context, saved []*entity.Attachment) {
	for _, att := range saved {
		if err := a.attachments.Delete(ctx, att.ID); err != nil {
			a.logger.Error("Failed to remove attachment record", "attachment_id", att.ID, "error", err)
		}
		if err := a.storage.Delete(ctx, att.FilePath); err != nil {
			a.logger.Error("Failed to remove attachment file", "path", att.FilePath, "error", err)
		}
	}
}

func (a *attachmentServiceImpl) store(ctx context.Context, requestID int64, uploader string, f entity.AttachmentFile) (*entity.Attachment, error) {
	name := sanitizeFileName(f.FileName)
	relPath := path.Join(fmt.Sprintf("%d", requestID), uuid.NewString()+"-"+name)

	if err := a.storage.Save(ctx, relPath, f.Content); err != nil {
		a.logger.Error("Failed to save attachment", "request_id", requestID, "file", name, "error", err)
		return nil, fmt.Errorf("%w: save attachment: %w", workflow.ErrStore, err)
	}

	att := &entity.Attachment{
		RequestID:  requestID,
		FileName:   name,
		FilePath:   relPath,
		FileSize:   int64(len(f.Content)),
		MimeType:   f.MimeType,
		UploadedBy: uploader,
		CreatedAt:  time.Now(),
	}
	if err := a.attachments.Create(ctx, att); err != nil {
		if delErr := a.storage.Delete(ctx, relPath); delErr != nil {
			a.logger.Error("Failed to remove orphaned attachment", "path", relPath, "error", delErr)
		}
		return nil, fmt.Errorf("%w: record attachment: %w", workflow.ErrStore, err)
	}
	return att, nil
}

func (a *attachmentServiceImpl) List(ctx context.Context, s *access.Session, requestID int64) ([]*entity.Attachment, error) {
	if _, err := a.requests.Get(ctx, s, requestID); err != nil {
		return nil, err
	}

	atts, err := a.attachments.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: list attachments: %w", workflow.ErrStore, err)
	}
	if atts == nil {
		atts = []*entity.Attachment{}
	}
	return atts, nil
}

func (a *attachmentServiceImpl) Open(ctx context.Context, s *access.Session, requestID, attachmentID int64) (*entity.Attachment, []byte, error) {
	if _, err := a.requests.Get(ctx, s, requestID); err != nil {
		return nil, nil, err
	}

	att, err := a.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get attachment %d: %w", attachmentID, err)
	}
	if att.RequestID != requestID {
		return nil, nil, fmt.Errorf("attachment %d on request %d: %w", attachmentID, requestID, port.ErrNotFound)
	}

	content, err := a.storage.Read(ctx, att.FilePath)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			a.logger.Error("Attachment file missing", "attachment_id", attachmentID, "path", att.FilePath)
		}
		return nil, nil, fmt.Errorf("%w: read attachment: %w", workflow.ErrStore, err)
	}
	return att, content, nil
}

// sanitizeFileName keeps the base name and replaces characters that are
// unsafe in paths
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "attachment"
	}
	return name
}
