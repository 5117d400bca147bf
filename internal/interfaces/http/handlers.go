package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/service"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/domain/entity"
	"github.com/garyjia/conference-requests/internal/domain/query"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Services bundles the application services the handlers call
type Services struct {
	Engine      workflow.WorkflowEngine
	Requests    service.RequestService
	Views       service.ViewService
	Attachments service.AttachmentService
	Reports     service.ReportService
	Health      HealthChecker
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// ViewResponse tags view data with the view it belongs to
type ViewResponse struct {
	Kind access.View `json:"kind"`
	Data interface{} `json:"data"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.services.Health != nil {
		if err := h.services.Health.Health(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err.Error())
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp, Error: "database unreachable"})
			return
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// Me handles GET /api/me
func (h *Handlers) Me(c *gin.Context) {
	profile := h.services.Views.Profile(c.Request.Context(), sessionFrom(c))
	c.JSON(http.StatusOK, Response{Success: true, Data: profile})
}

// GetView handles GET /api/views/:kind
func (h *Handlers) GetView(c *gin.Context) {
	view, ok := access.ParseView(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "unknown view"})
		return
	}

	state, err := h.services.Views.View(c.Request.Context(), sessionFrom(c), view)
	if err != nil {
		h.respondError(c, "view", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ViewResponse{Kind: state.Kind(), Data: state},
	})
}

// ListRequests handles GET /api/requests?filter=...
func (h *Handlers) ListRequests(c *gin.Context) {
	filter, err := query.Parse(c.Query("filter"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	requests, err := h.services.Requests.List(c.Request.Context(), sessionFrom(c), filter)
	if err != nil {
		h.respondError(c, "list", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.services.Requests.Get(c.Request.Context(), sessionFrom(c), id)
	if err != nil {
		h.respondError(c, "get", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// SaveDraft handles POST /api/requests
func (h *Handlers) SaveDraft(c *gin.Context) {
	var in workflow.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	req, err := h.services.Engine.SaveDraft(c.Request.Context(), sessionFrom(c), in)
	if err != nil {
		h.respondError(c, "save_draft", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// EditDraft handles PUT /api/requests/:id
func (h *Handlers) EditDraft(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var in workflow.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	req, err := h.services.Engine.EditDraft(c.Request.Context(), sessionFrom(c), id, in)
	if err != nil {
		h.respondError(c, "edit_draft", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// SubmitNew handles POST /api/requests/submit
func (h *Handlers) SubmitNew(c *gin.Context) {
	var in workflow.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	req, err := h.services.Engine.Submit(c.Request.Context(), sessionFrom(c), 0, &in)
	if err != nil {
		h.respondError(c, "submit", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// SubmitDraft handles POST /api/requests/:id/submit. A body, when present,
// replaces the draft content before submission.
func (h *Handlers) SubmitDraft(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var in *workflow.DraftInput
	var body workflow.DraftInput
	present, err := bindOptionalJSON(c, &body)
	if err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if present {
		in = &body
	}

	req, err := h.services.Engine.Submit(c.Request.Context(), sessionFrom(c), id, in)
	if err != nil {
		h.respondError(c, "submit", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// Approve returns the handler for POST /api/requests/:id/<stage>/approve
func (h *Handlers) Approve(stage domainwf.Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.decide(c, stage, "approve", h.services.Engine.Approve)
	}
}

// Deny returns the handler for POST /api/requests/:id/<stage>/deny
func (h *Handlers) Deny(stage domainwf.Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.decide(c, stage, "deny", h.services.Engine.Deny)
	}
}

type decideFunc func(ctx context.Context, s *access.Session, id int64, stage domainwf.Stage, d workflow.Decision) (*entity.ConferenceRequest, error)

func (h *Handlers) decide(c *gin.Context, stage domainwf.Stage, op string, fn decideFunc) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var d workflow.Decision
	if _, err := bindOptionalJSON(c, &d); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	req, err := fn(c.Request.Context(), sessionFrom(c), id, stage, d)
	if err != nil {
		h.respondError(c, string(stage)+"_"+op, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// UploadAttachments handles POST /api/requests/:id/attachments (multipart field "files")
func (h *Handlers) UploadAttachments(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "expected multipart form with files")
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		badRequest(c, "no files uploaded")
		return
	}

	files := make([]entity.AttachmentFile, 0, len(headers))
	for _, fh := range headers {
		content, err := readFormFile(fh)
		if err != nil {
			badRequest(c, fmt.Sprintf("failed to read %s", fh.Filename))
			return
		}
		files = append(files, entity.AttachmentFile{
			Content:  content,
			FileName: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     int64(len(content)),
		})
	}

	attachments, err := h.services.Attachments.Attach(c.Request.Context(), sessionFrom(c), id, files)
	if err != nil {
		h.respondError(c, "attach", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: attachments})
}

// ListAttachments handles GET /api/requests/:id/attachments
func (h *Handlers) ListAttachments(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	attachments, err := h.services.Attachments.List(c.Request.Context(), sessionFrom(c), id)
	if err != nil {
		h.respondError(c, "list_attachments", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: attachments})
}

// DownloadAttachment handles GET /api/requests/:id/attachments/:attachmentId
func (h *Handlers) DownloadAttachment(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	attachmentID, err := strconv.ParseInt(c.Param("attachmentId"), 10, 64)
	if err != nil || attachmentID <= 0 {
		badRequest(c, "invalid attachment id")
		return
	}

	att, content, err := h.services.Attachments.Open(c.Request.Context(), sessionFrom(c), id, attachmentID)
	if err != nil {
		h.respondError(c, "download_attachment", err)
		return
	}

	contentType := att.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.FileName}))
	c.Data(http.StatusOK, contentType, content)
}

// ExportApproved handles GET /api/reports/approved.xlsx
func (h *Handlers) ExportApproved(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.services.Reports.ExportApproved(c.Request.Context(), sessionFrom(c), &buf); err != nil {
		h.respondError(c, "export", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.services.Reports.FileName()))
	c.Data(http.StatusOK, h.services.Reports.ContentType(), buf.Bytes())
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid request id")
		return 0, false
	}
	return id, true
}

// bindOptionalJSON decodes the body into dst unless it is empty
func bindOptionalJSON(c *gin.Context, dst interface{}) (bool, error) {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return false, nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
