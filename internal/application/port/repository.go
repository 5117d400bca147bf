package port

import (
	"context"
	"errors"

	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/query"
)

// MaxListResults caps how many requests a single List call returns
const MaxListResults = 5000

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a conditional update finds the record
	// in a different status than the caller expected
	ErrConflict = errors.New("record was modified concurrently")
)

// RequestRepository defines persistence operations for ConferenceRequest
type RequestRepository interface {
	// List returns requests matching the filter, newest first, capped at MaxListResults
	List(ctx context.Context, filter query.Filter) ([]*entity.ConferenceRequest, error)

	// GetByID returns ErrNotFound when the id does not exist
	GetByID(ctx context.Context, id int64) (*entity.ConferenceRequest, error)

	// Create stores a new request and assigns its ID and timestamps
	Create(ctx context.Context, req *entity.ConferenceRequest) error

	// Update merges the patch into the stored record and returns the result.
	// Changed cost fields are merged with stored ones before the total is
	// recomputed. A patch with IfStatus set fails with ErrConflict when the
	// stored status differs.
	Update(ctx context.Context, id int64, patch entity.RequestPatch) (*entity.ConferenceRequest, error)
}

// AttachmentRepository defines persistence operations for Attachment
type AttachmentRepository interface {
	Create(ctx context.Context, att *entity.Attachment) error
	GetByID(ctx context.Context, id int64) (*entity.Attachment, error)
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Attachment, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
