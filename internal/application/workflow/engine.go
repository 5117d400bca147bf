package workflow

import (
	"context"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// Decision carries the approver's input for an approve or deny action
type Decision struct {
	// Reason is required when denying
	Reason string `json:"reason"`
	// GLCode is required when Accounting approves
	GLCode string `json:"gl_code"`
}

// WorkflowEngine performs every state-changing action on a conference request.
// Validation and authorization happen before any write, and each action
// persists with a single store update.
type WorkflowEngine interface {
	// SaveDraft creates a new draft owned by the session user
	SaveDraft(ctx context.Context, s *access.Session, in DraftInput) (*entity.ConferenceRequest, error)

	// EditDraft replaces the content of the user's own draft
	EditDraft(ctx context.Context, s *access.Session, id int64, in DraftInput) (*entity.ConferenceRequest, error)

	// Submit moves a draft into the manager queue. With id 0 a new request is
	// created already submitted; otherwise in, when non-nil, is applied to the
	// stored draft before validation.
	Submit(ctx context.Context, s *access.Session, id int64, in *DraftInput) (*entity.ConferenceRequest, error)

	// Approve advances a request past the given stage
	Approve(ctx context.Context, s *access.Session, id int64, stage domainwf.Stage, d Decision) (*entity.ConferenceRequest, error)

	// Deny rejects a request at the given stage
	Deny(ctx context.Context, s *access.Session, id int64, stage domainwf.Stage, d Decision) (*entity.ConferenceRequest, error)
}
