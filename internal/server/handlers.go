package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/export"
	"github.com/garyjia/billing-audit/internal/models"
	"github.com/garyjia/billing-audit/internal/rates"
	"github.com/garyjia/billing-audit/internal/storage"
	"github.com/garyjia/billing-audit/internal/worker"
)

// RunStore is the run persistence surface the API needs.
type RunStore interface {
	Create(tx *sql.Tx, run *models.AuditRun) error
	GetByID(id string) (*models.AuditRun, error)
	List(limit int) ([]*models.AuditRun, error)
}

// ItemStore is the item persistence surface the API needs.
type ItemStore interface {
	GetByRunID(runID string) ([]models.ValidationResult, error)
}

// StatusReporter exposes the background worker snapshot.
type StatusReporter interface {
	GetStatus() worker.Status
}

// Response is the standard JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
	Worker    worker.Status `json:"worker"`
}

// RunDetail is one run with its stored report blobs decoded.
type RunDetail struct {
	*models.AuditRun
	Header     *models.BillHeader        `json:"header,omitempty"`
	Concession *models.ConcessionSummary `json:"concession,omitempty"`
	Metrics    *models.ComplianceMetrics `json:"metrics,omitempty"`
}

// RateEntryResponse is one rate table probe result.
type RateEntryResponse struct {
	Scheme      models.Scheme `json:"scheme"`
	ServiceCode string        `json:"service_code"`
	ServiceName string        `json:"service_name"`
	Rate        float64       `json:"rate"`
}

// Handlers contains all HTTP request handlers.
type Handlers struct {
	runs     RunStore
	items    ItemStore
	storage  storage.FileStorage
	table    *rates.Table
	exporter *export.Exporter
	worker   StatusReporter
	logger   *zap.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(
	runs RunStore,
	items ItemStore,
	fileStorage storage.FileStorage,
	table *rates.Table,
	exporter *export.Exporter,
	workerStatus StatusReporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		runs:     runs,
		items:    items,
		storage:  fileStorage,
		table:    table,
		exporter: exporter,
		worker:   workerStatus,
		logger:   logger,
	}
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	status := h.worker.GetStatus()

	overall := "healthy"
	if !status.IsHealthy {
		overall = "degraded"
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    overall,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Worker:    status,
		},
	})
}

// CreateAudit handles POST /api/v1/audits. The uploaded bill is stored and
// a PENDING run queued for the worker; the audit itself runs asynchronously.
func (h *Handlers) CreateAudit(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "missing file upload",
		})
		return
	}

	scheme := models.SchemeStandard
	overridden := false
	if raw := c.PostForm("scheme"); raw != "" {
		parsed, err := models.ParseScheme(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
		scheme = parsed
		overridden = true
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "unreadable file upload",
		})
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "unreadable file upload",
		})
		return
	}

	runID := uuid.NewString()
	path, err := h.storage.SaveUpload(runID, fileHeader.Filename, content)
	if err != nil {
		h.logger.Error("Failed to store upload",
			zap.String("run_id", runID),
			zap.String("file_name", fileHeader.Filename),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to store upload",
		})
		return
	}

	run := &models.AuditRun{
		ID:               runID,
		FileName:         filepath.Base(fileHeader.Filename),
		FilePath:         path,
		Scheme:           scheme,
		SchemeOverridden: overridden,
		Status:           models.RunStatusPending,
	}
	if err := h.runs.Create(nil, run); err != nil {
		h.logger.Error("Failed to create audit run",
			zap.String("run_id", runID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to create audit run",
		})
		return
	}

	h.logger.Info("Audit run queued",
		zap.String("run_id", run.ID),
		zap.String("file_name", run.FileName),
		zap.Bool("scheme_overridden", overridden))

	c.JSON(http.StatusAccepted, Response{
		Success: true,
		Data:    run,
	})
}

// ListAudits handles GET /api/v1/audits.
func (h *Handlers) ListAudits(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := h.runs.List(limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve runs",
		})
		return
	}

	if runs == nil {
		runs = []*models.AuditRun{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    runs,
	})
}

// GetAudit handles GET /api/v1/audits/:id.
func (h *Handlers) GetAudit(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: RunDetail{
			AuditRun:   run,
			Header:     decodeBlob[models.BillHeader](h.logger, "header", run.HeaderJSON),
			Concession: decodeBlob[models.ConcessionSummary](h.logger, "concession", run.ConcessionJSON),
			Metrics:    decodeBlob[models.ComplianceMetrics](h.logger, "metrics", run.MetricsJSON),
		},
	})
}

// GetAuditItems handles GET /api/v1/audits/:id/items.
func (h *Handlers) GetAuditItems(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	items, err := h.items.GetByRunID(run.ID)
	if err != nil {
		h.logger.Error("Failed to load run items",
			zap.String("run_id", run.ID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve items",
		})
		return
	}

	if items == nil {
		items = []models.ValidationResult{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    items,
	})
}

// GetAuditLeakage handles GET /api/v1/audits/:id/leakage.
func (h *Handlers) GetAuditLeakage(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	report := decodeBlob[models.LeakageReport](h.logger, "leakage", run.LeakageJSON)
	if report == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "leakage report not available",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    report,
	})
}

// ExportAudit handles GET /api/v1/audits/:id/export.
func (h *Handlers) ExportAudit(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	if run.Status != models.RunStatusCompleted {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "run not completed",
		})
		return
	}

	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	items, err := h.items.GetByRunID(run.ID)
	if err != nil {
		h.logger.Error("Failed to load run items for export",
			zap.String("run_id", run.ID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve items",
		})
		return
	}

	doc := export.Document{Run: run, Items: items}
	if header := decodeBlob[models.BillHeader](h.logger, "header", run.HeaderJSON); header != nil {
		doc.Header = *header
	}
	if concession := decodeBlob[models.ConcessionSummary](h.logger, "concession", run.ConcessionJSON); concession != nil {
		doc.Concession = *concession
	}
	if metrics := decodeBlob[models.ComplianceMetrics](h.logger, "metrics", run.MetricsJSON); metrics != nil {
		doc.Metrics = *metrics
	}
	if leakage := decodeBlob[models.LeakageReport](h.logger, "leakage", run.LeakageJSON); leakage != nil {
		doc.Leakage = *leakage
	}

	base := strings.TrimSuffix(run.FileName, filepath.Ext(run.FileName)) + " audit"
	fileName := export.FileName(base, format)

	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Status(http.StatusOK)

	// Headers are already on the wire; a mid-stream failure can only be
	// logged, not turned into an error response.
	if err := h.exporter.Render(c.Writer, format, &doc); err != nil {
		h.logger.Warn("Export rendering failed",
			zap.String("run_id", run.ID),
			zap.String("format", string(format)),
			zap.Error(err))
	}
}

// LookupRate handles GET /api/v1/rates/lookup.
func (h *Handlers) LookupRate(c *gin.Context) {
	scheme := models.SchemeStandard
	if raw := c.Query("scheme"); raw != "" {
		parsed, err := models.ParseScheme(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
		scheme = parsed
	}

	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "missing code parameter",
		})
		return
	}

	canonical, entry, found := h.table.Lookup(scheme, code)
	if !found {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   fmt.Sprintf("service code %s not found in %s rate sheet", code, scheme),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: RateEntryResponse{
			Scheme:      scheme,
			ServiceCode: canonical,
			ServiceName: entry.ServiceName,
			Rate:        entry.Rate,
		},
	})
}

// loadRun fetches the :id run and writes the error response itself when the
// run is missing or the lookup fails.
func (h *Handlers) loadRun(c *gin.Context) (*models.AuditRun, bool) {
	id := c.Param("id")

	run, err := h.runs.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to load run",
			zap.String("run_id", id),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve run",
		})
		return nil, false
	}
	if run == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "run not found",
		})
		return nil, false
	}
	return run, true
}

// decodeBlob decodes one stored report blob. Empty or malformed blobs yield
// nil so responses omit them instead of failing.
func decodeBlob[T any](logger *zap.Logger, what, raw string) *T {
	if raw == "" {
		return nil
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Warn("Stored blob not decodable",
			zap.String("blob", what),
			zap.Error(err))
		return nil
	}
	return &v
}
