package service

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/query"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// ReportService produces Accounting's downloadable reports
type ReportService interface {
	// ExportApproved writes every fully approved request. Accounting only.
	ExportApproved(ctx context.Context, s *access.Session, w io.Writer) error
	ContentType() string
	FileName() string
}

type reportServiceImpl struct {
	requests port.RequestRepository
	roles    *access.Resolver
	writer   port.ReportWriter
	logger   Logger
}

// NewReportService creates a new ReportService
func NewReportService(requests port.RequestRepository, roles *access.Resolver, writer port.ReportWriter, logger Logger) ReportService {
	return &reportServiceImpl{
		requests: requests,
		roles:    roles,
		writer:   writer,
		logger:   logger,
	}
}

func (r *reportServiceImpl) ExportApproved(ctx context.Context, s *access.Session, w io.Writer) error {
	email := s.User().Email
	if !r.roles.IsAccounting(email) {
		return fmt.Errorf("%w: approved report", workflow.ErrUnauthorized)
	}

	approved, err := r.requests.List(ctx, query.And(query.Eq(query.FieldStatus, string(domainwf.StateFullyApproved))))
	if err != nil {
		return fmt.Errorf("%w: list approved requests: %w", workflow.ErrStore, err)
	}

	if err := r.writer.WriteApproved(ctx, w, approved); err != nil {
		r.logger.Error("Failed to write approved report", "error", err)
		return fmt.Errorf("write approved report: %w", err)
	}

	var total float64
	for _, req := range approved {
		total += req.TotalEstimatedBudget
	}
	r.logger.Info("Approved report exported",
		"requested_by", email,
		"rows", len(approved),
		"total", entity.FormatCurrency(total),
	)
	return nil
}

func (r *reportServiceImpl) ContentType() string {
	return r.writer.ContentType()
}

func (r *reportServiceImpl) FileName() string {
	return "approved-requests" + r.writer.FileExtension()
}
