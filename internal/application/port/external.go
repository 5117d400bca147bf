package port

import (
	"context"
	"io"

	"github.com/garyjia/conference-requests/internal/domain/entity"
)

// DirectoryClient looks up organizational relationships for a user
type DirectoryClient interface {
	// GetManager returns the user's manager, or nil when none is recorded
	GetManager(ctx context.Context, email string) (*entity.Person, error)

	// GetDirectReports returns the people who report to the user
	GetDirectReports(ctx context.Context, email string) ([]entity.Person, error)
}

// ReportWriter renders requests into a downloadable report
type ReportWriter interface {
	WriteApproved(ctx context.Context, w io.Writer, requests []*entity.ConferenceRequest) error
	ContentType() string
	FileExtension() string
}
