package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/infrastructure/persistence/sqlite"
)

const attachmentColumns = `id, request_id, file_name, file_path, file_size, mime_type, uploaded_by, created_at`

// AttachmentRepository implements port.AttachmentRepository
type AttachmentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sqlite.DB, logger *zap.Logger) port.AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new attachment record
func (r *AttachmentRepository) Create(ctx context.Context, att *entity.Attachment) error {
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO request_attachments (
			request_id, file_name, file_path, file_size, mime_type, uploaded_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		att.RequestID,
		att.FileName,
		att.FilePath,
		att.FileSize,
		att.MimeType,
		att.UploadedBy,
		att.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create attachment",
			zap.Int64("request_id", att.RequestID),
			zap.String("file_name", att.FileName),
			zap.Error(err))
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	att.ID = id
	return nil
}

// GetByID retrieves an attachment by ID
func (r *AttachmentRepository) GetByID(ctx context.Context, id int64) (*entity.Attachment, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM request_attachments WHERE id = ?`, id)

	att, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attachment %d: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get attachment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return att, nil
}

// GetByRequestID lists the attachments of a request, oldest first
func (r *AttachmentRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Attachment, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		`SELECT `+attachmentColumns+` FROM request_attachments WHERE request_id = ? ORDER BY id ASC`, requestID)
	if err != nil {
		r.logger.Error("Failed to list attachments", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]*entity.Attachment, 0)
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}

// Delete removes an attachment record. The stored file is left to the caller.
func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM request_attachments WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete attachment", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("attachment %d: %w", id, port.ErrNotFound)
	}
	return nil
}

func scanAttachment(row rowScanner) (*entity.Attachment, error) {
	var att entity.Attachment
	err := row.Scan(
		&att.ID,
		&att.RequestID,
		&att.FileName,
		&att.FilePath,
		&att.FileSize,
		&att.MimeType,
		&att.UploadedBy,
		&att.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &att, nil
}
