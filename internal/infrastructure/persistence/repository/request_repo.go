package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/query"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
	"github.com/garyjia/conference-requests/internal/infrastructure/persistence/sqlite"
)

const requestColumns = `
	id, title,
	event_name, event_location, event_start_date, event_end_date, attendees, how_many_attended,
	primary_objective, corporate_priorities, knowledge_sharing_plan, previously_attended, additional_comments,
	registration_cost, airfare_cost, lodging_cost, meeting_room_rental_cost,
	car_rental_cost, travel_meal_allowance_cost, conference_meals_cost, other_cost,
	total_estimated_budget,
	status, submitter_email, submitter_name, manager_email,
	manager_approval_date, manager_denial_reason,
	org_dev_approver_email, org_dev_approval_date, org_dev_denial_reason,
	accounting_approver_email, accounting_approval_date, accounting_denial_reason, gl_code,
	submitted_date, last_modified_date, created_at`

// filterColumns maps filterable fields to their SQL comparison
var filterColumns = map[query.Field]string{
	query.FieldStatus:         "status = ?",
	query.FieldSubmitterEmail: "submitter_email = ? COLLATE NOCASE",
	query.FieldManagerEmail:   "manager_email = ? COLLATE NOCASE",
}

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new request and assigns its ID and timestamps
func (r *RequestRepository) Create(ctx context.Context, req *entity.ConferenceRequest) error {
	now := r.now()
	req.CreatedAt = now
	req.LastModifiedDate = now
	req.CorporatePriorities = req.CorporatePriorities.Normalize()
	req.RecalculateTotal()

	q := `INSERT INTO conference_requests (` + insertColumns() + `) VALUES (` + placeholders(len(writableColumns)) + `)`

	result, err := r.db.Executor(ctx).ExecContext(ctx, q, rowValues(req)...)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves a request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.ConferenceRequest, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM conference_requests WHERE id = ?`, id)

	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %d: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// List returns requests matching the filter, newest first
func (r *RequestRepository) List(ctx context.Context, filter query.Filter) ([]*entity.ConferenceRequest, error) {
	where, args, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}

	q := `SELECT ` + requestColumns + ` FROM conference_requests`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, port.MaxListResults)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.String("filter", filter.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*entity.ConferenceRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}
	return requests, nil
}

// Update merges the patch into the stored row within one transaction. A patch
// that would leave the record inconsistent is rejected and nothing is written.
func (r *RequestRepository) Update(ctx context.Context, id int64, patch entity.RequestPatch) (*entity.ConferenceRequest, error) {
	var updated *entity.ConferenceRequest

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}

		expected := current.Status
		if patch.IfStatus != "" && patch.IfStatus != expected {
			return fmt.Errorf("request %d is %q, expected %q: %w", id, expected, patch.IfStatus, port.ErrConflict)
		}

		patch.ApplyTo(current)
		current.RecalculateTotal()
		current.LastModifiedDate = r.now()

		if err := current.CheckConsistency(); err != nil {
			r.logger.Error("Rejected inconsistent request update", zap.Int64("id", id), zap.Error(err))
			return fmt.Errorf("request %d update rejected: %w", id, err)
		}

		values := rowValues(current)
		q := `UPDATE conference_requests SET ` + updateAssignments() + ` WHERE id = ? AND status = ?`
		result, err := r.db.Executor(ctx).ExecContext(ctx, q, append(values, id, expected)...)
		if err != nil {
			r.logger.Error("Failed to update request", zap.Int64("id", id), zap.Error(err))
			return fmt.Errorf("failed to update request: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("request %d changed during update: %w", id, port.ErrConflict)
		}

		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// writableColumns are every column except the primary key, in rowValues order
var writableColumns = func() []string {
	var cols []string
	for _, c := range strings.Split(requestColumns, ",") {
		c = strings.TrimSpace(c)
		if c != "" && c != "id" {
			cols = append(cols, c)
		}
	}
	return cols
}()

func insertColumns() string {
	return strings.Join(writableColumns, ", ")
}

func updateAssignments() string {
	sets := make([]string, len(writableColumns))
	for i, c := range writableColumns {
		sets[i] = c + " = ?"
	}
	return strings.Join(sets, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func rowValues(req *entity.ConferenceRequest) []interface{} {
	return []interface{}{
		req.Title,
		req.EventName, req.EventLocation, dateValue(req.EventStartDate), dateValue(req.EventEndDate),
		req.Attendees, req.HowManyAttended,
		req.PrimaryObjective, req.CorporatePriorities.Encode(), req.KnowledgeSharingPlan,
		req.PreviouslyAttended, req.AdditionalComments,
		req.Registration, req.Airfare, req.Lodging, req.MeetingRoomRental,
		req.CarRental, req.TravelMealAllowance, req.ConferenceMeals, req.Other,
		req.TotalEstimatedBudget,
		string(req.Status), req.SubmitterEmail, req.SubmitterName, req.ManagerEmail,
		timeValue(req.ManagerApprovalDate), req.ManagerDenialReason,
		req.OrgDevApproverEmail, timeValue(req.OrgDevApprovalDate), req.OrgDevDenialReason,
		req.AccountingApproverEmail, timeValue(req.AccountingApprovalDate), req.AccountingDenialReason, req.GLCode,
		timeValue(req.SubmittedDate), req.LastModifiedDate.UTC(), req.CreatedAt.UTC(),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.ConferenceRequest, error) {
	var (
		req                     entity.ConferenceRequest
		status, priorities      string
		startDate, endDate      sql.NullString
		managerAt, orgDevAt     sql.NullTime
		accountingAt, submitted sql.NullTime
	)

	err := row.Scan(
		&req.ID, &req.Title,
		&req.EventName, &req.EventLocation, &startDate, &endDate, &req.Attendees, &req.HowManyAttended,
		&req.PrimaryObjective, &priorities, &req.KnowledgeSharingPlan, &req.PreviouslyAttended, &req.AdditionalComments,
		&req.Registration, &req.Airfare, &req.Lodging, &req.MeetingRoomRental,
		&req.CarRental, &req.TravelMealAllowance, &req.ConferenceMeals, &req.Other,
		&req.TotalEstimatedBudget,
		&status, &req.SubmitterEmail, &req.SubmitterName, &req.ManagerEmail,
		&managerAt, &req.ManagerDenialReason,
		&req.OrgDevApproverEmail, &orgDevAt, &req.OrgDevDenialReason,
		&req.AccountingApproverEmail, &accountingAt, &req.AccountingDenialReason, &req.GLCode,
		&submitted, &req.LastModifiedDate, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Status = domainwf.State(status)
	req.CorporatePriorities = entity.DecodePriorities(priorities)
	req.EventStartDate = scanDate(startDate)
	req.EventEndDate = scanDate(endDate)
	req.ManagerApprovalDate = scanTime(managerAt)
	req.OrgDevApprovalDate = scanTime(orgDevAt)
	req.AccountingApprovalDate = scanTime(accountingAt)
	req.SubmittedDate = scanTime(submitted)
	return &req, nil
}

func compileFilter(filter query.Filter) (string, []interface{}, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}
	if filter.IsEmpty() {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filter.Conditions))
	args := make([]interface{}, 0, len(filter.Conditions))
	for _, c := range filter.Conditions {
		clauses = append(clauses, filterColumns[c.Field])
		args = append(args, c.Value)
	}
	return strings.Join(clauses, " AND "), args, nil
}

func dateValue(d *entity.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// scanDate drops values that do not parse; the column is free text in SQLite
func scanDate(s sql.NullString) *entity.Date {
	if !s.Valid {
		return nil
	}
	d, err := entity.ParseDate(s.String)
	if err != nil || d.IsZero() {
		return nil
	}
	return &d
}

func scanTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
