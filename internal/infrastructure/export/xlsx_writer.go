package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
)

const (
	sheetName = "Approved Requests"

	// Built-in number format "#,##0.00"
	numFmtCurrency = 4
)

var fixedHeaders = []string{
	"Request ID", "Event", "Location", "Start Date", "End Date", "Attendees",
	"Submitter", "Submitter Email", "Manager Email",
}

var trailingHeaders = []string{
	"Total Estimated Budget", "GL Code", "Accounting Approver", "Approved On",
}

// XLSXWriter implements port.ReportWriter as an Excel workbook
type XLSXWriter struct {
	title  string
	logger *zap.Logger
}

// Option configures an XLSXWriter
type Option func(*XLSXWriter)

// WithTitle sets the workbook title document property
func WithTitle(title string) Option {
	return func(x *XLSXWriter) {
		x.title = title
	}
}

// NewXLSXWriter creates a new workbook report writer
func NewXLSXWriter(logger *zap.Logger, opts ...Option) port.ReportWriter {
	x := &XLSXWriter{title: sheetName, logger: logger}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ContentType returns the xlsx MIME type
func (x *XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension returns ".xlsx"
func (x *XLSXWriter) FileExtension() string {
	return ".xlsx"
}

// WriteApproved writes one row per request with its itemized costs, total and GL code
func (x *XLSXWriter) WriteApproved(ctx context.Context, w io.Writer, requests []*entity.ConferenceRequest) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := file.SetDocProps(&excelize.DocProperties{Title: x.title, Subject: sheetName}); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}

	headers := reportHeaders()
	if err := file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := x.styleSheet(file, len(headers), len(requests)); err != nil {
		return err
	}

	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			return err
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := reportRow(req)
		if err := file.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write request %d: %w", req.ID, err)
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	x.logger.Info("Approved requests exported",
		zap.Int("row_count", len(requests)))
	return nil
}

func (x *XLSXWriter) styleSheet(file *excelize.File, columns, rows int) error {
	lastCol, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return fmt.Errorf("failed to resolve last column: %w", err)
	}

	header, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := file.SetCellStyle(sheetName, "A1", lastCol+"1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	currency, err := file.NewStyle(&excelize.Style{NumFmt: numFmtCurrency})
	if err != nil {
		return fmt.Errorf("failed to create currency style: %w", err)
	}
	firstCost, _ := excelize.ColumnNumberToName(len(fixedHeaders) + 1)
	totalCol, _ := excelize.ColumnNumberToName(len(fixedHeaders) + len(entity.Costs{}.Items()) + 1)
	if err := file.SetColStyle(sheetName, firstCost+":"+totalCol, currency); err != nil {
		return fmt.Errorf("failed to style cost columns: %w", err)
	}
	if err := file.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := file.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if rows > 0 {
		if err := file.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, rows+1), nil); err != nil {
			return fmt.Errorf("failed to add filter: %w", err)
		}
	}
	return nil
}

func reportHeaders() []interface{} {
	headers := make([]interface{}, 0, len(fixedHeaders)+8+len(trailingHeaders))
	for _, h := range fixedHeaders {
		headers = append(headers, h)
	}
	for _, item := range (entity.Costs{}).Items() {
		headers = append(headers, item.Label)
	}
	for _, h := range trailingHeaders {
		headers = append(headers, h)
	}
	return headers
}

func reportRow(req *entity.ConferenceRequest) []interface{} {
	row := []interface{}{
		req.ID,
		req.EventName,
		req.EventLocation,
		dateCell(req.EventStartDate),
		dateCell(req.EventEndDate),
		req.HowManyAttended,
		req.SubmitterName,
		req.SubmitterEmail,
		req.ManagerEmail,
	}
	for _, item := range req.Costs.Sanitized().Items() {
		row = append(row, entity.RoundCurrency(item.Amount))
	}
	return append(row,
		entity.RoundCurrency(req.TotalEstimatedBudget),
		req.GLCode,
		req.AccountingApproverEmail,
		timeCell(req.AccountingApprovalDate),
	)
}

func dateCell(d *entity.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(entity.DateLayout)
}
