package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/export"
	"github.com/garyjia/billing-audit/internal/models"
	"github.com/garyjia/billing-audit/internal/rates"
	"github.com/garyjia/billing-audit/internal/repository"
	"github.com/garyjia/billing-audit/internal/storage"
	"github.com/garyjia/billing-audit/internal/worker"
	"github.com/garyjia/billing-audit/pkg/database"
)

type stubStatus struct {
	status worker.Status
}

func (s stubStatus) GetStatus() worker.Status {
	return s.status
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type serverEnv struct {
	srv       *Server
	db        *database.DB
	runs      *repository.RunRepository
	items     *repository.ItemRepository
	uploadDir string
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "api.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations(filepath.Join("..", "..", "migrations")))

	runs := repository.NewRunRepository(db.DB, logger)
	items := repository.NewItemRepository(db.DB, logger)

	uploadDir := t.TempDir()
	table := rates.NewTable()
	table.Add(models.SchemeStandard, "LAB1234", rates.Entry{ServiceName: "COMPLETE BLOOD COUNT", Rate: 350})

	handlers := NewHandlers(
		runs,
		items,
		storage.NewLocalFileStorage(uploadDir, logger),
		table,
		export.NewExporter(logger),
		stubStatus{worker.Status{IsRunning: true, IsHealthy: true}},
		logger,
	)

	srv := NewServer(Config{Host: "127.0.0.1", Port: 0}, handlers, logger)
	return &serverEnv{srv: srv, db: db, runs: runs, items: items, uploadDir: uploadDir}
}

func (e *serverEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, req)
	return w
}

func (e *serverEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func uploadRequest(t *testing.T, fileName, content, scheme string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	if scheme != "" {
		require.NoError(t, mw.WriteField("scheme", scheme))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/audits", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *serverEnv) seedCompletedRun(t *testing.T, id string) *models.AuditRun {
	t.Helper()

	run := &models.AuditRun{
		ID:       id,
		FileName: "statement.pdf",
		FilePath: filepath.Join(e.uploadDir, id, "statement.pdf"),
		Scheme:   models.SchemeStandard,
		Status:   models.RunStatusPending,
	}
	require.NoError(t, e.runs.Create(nil, run))

	now := time.Now().UTC()
	run.ItemCount = 1
	run.TotalBilledAmount = 700
	run.TotalLeakageAmount = 0
	run.HeaderJSON = `{"patient_name":"RAMESH KUMAR","company":"SOUTHERN RAILWAY"}`
	run.ConcessionJSON = `{"total_bill_amount":700.00,"advance_payments":[]}`
	run.LeakageJSON = `{"total_billed_amount":700,"total_leakage_amount":0,"leakage_by_category":{},"leakage_by_outcome":{},"recommendations":[],"priority_issues":[]}`
	run.MetricsJSON = `{"total_items":1,"compliant_count":1,"compliance_rate":1}`
	run.CompletedAt = &now
	require.NoError(t, e.runs.UpdateCompleted(nil, run))

	item := models.ValidationResult{
		BillingLineItem: models.BillingLineItem{
			ServiceCode:        "LAB1234",
			ServiceDescription: "COMPLETE BLOOD COUNT",
			BaseUnitAmount:     350,
			Quantity:           2,
			BilledAmount:       700,
			Category:           "CLINICAL_PATHOLOGY",
			ChargeDate:         "03-01-2024",
			SourcePage:         2,
		},
		Scheme:           models.SchemeStandard,
		ValidationStatus: models.StatusRateCompliant,
		MatchedStatus:    models.MatchedStatusMatched,
		AuditOutcome:     models.OutcomeMatch,
	}
	require.NoError(t, e.db.WithTransaction(func(tx *sql.Tx) error {
		return e.items.ReplaceForRun(tx, id, []models.ValidationResult{item})
	}))

	return run
}

func TestHealthCheck(t *testing.T) {
	env := newServerEnv(t)

	w := env.get(t, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.Worker.IsRunning)
}

func TestCreateAudit(t *testing.T) {
	env := newServerEnv(t)

	w := env.do(uploadRequest(t, "march bill.txt", "CLINICAL PATHOLOGY\n01-01-2024 LAB1234 CBC 350.00\n", ""))
	require.Equal(t, http.StatusAccepted, w.Code)

	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success)

	var run models.AuditRun
	require.NoError(t, json.Unmarshal(resp.Data, &run))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "march bill.txt", run.FileName)
	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.Equal(t, models.SchemeStandard, run.Scheme)
	assert.False(t, run.SchemeOverridden)

	stored, err := env.runs.GetByID(run.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	_, err = os.Stat(stored.FilePath)
	require.NoError(t, err, "uploaded bill lands on disk")
}

func TestCreateAudit_SchemeOverride(t *testing.T) {
	env := newServerEnv(t)

	w := env.do(uploadRequest(t, "bill.txt", "x", "CGHS"))
	require.Equal(t, http.StatusAccepted, w.Code)

	var run models.AuditRun
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &run))
	assert.Equal(t, models.SchemeCGHS, run.Scheme)
	assert.True(t, run.SchemeOverridden)
}

func TestCreateAudit_InvalidScheme(t *testing.T) {
	env := newServerEnv(t)

	w := env.do(uploadRequest(t, "bill.txt", "x", "PRIVATE"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown scheme")
}

func TestCreateAudit_MissingFile(t *testing.T) {
	env := newServerEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/audits", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := env.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "missing file upload")
}

func TestListAudits(t *testing.T) {
	env := newServerEnv(t)
	env.seedCompletedRun(t, "run-1")

	w := env.get(t, "/api/v1/audits")
	require.Equal(t, http.StatusOK, w.Code)

	var runs []*models.AuditRun
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestListAudits_Empty(t *testing.T) {
	env := newServerEnv(t)

	w := env.get(t, "/api/v1/audits")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, w).Data))
}

func TestGetAudit(t *testing.T) {
	env := newServerEnv(t)
	env.seedCompletedRun(t, "run-1")

	w := env.get(t, "/api/v1/audits/run-1")
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Header struct {
			PatientName string `json:"patient_name"`
			Company     string `json:"company"`
		} `json:"header"`
		Metrics struct {
			TotalItems int `json:"total_items"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &detail))
	assert.Equal(t, "run-1", detail.ID)
	assert.Equal(t, models.RunStatusCompleted, detail.Status)
	assert.Equal(t, "RAMESH KUMAR", detail.Header.PatientName)
	assert.Equal(t, "SOUTHERN RAILWAY", detail.Header.Company)
	assert.Equal(t, 1, detail.Metrics.TotalItems)
}

func TestGetAudit_NotFound(t *testing.T) {
	env := newServerEnv(t)

	w := env.get(t, "/api/v1/audits/no-such-run")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "run not found")
}

func TestGetAuditItems(t *testing.T) {
	env := newServerEnv(t)
	env.seedCompletedRun(t, "run-1")

	w := env.get(t, "/api/v1/audits/run-1/items")
	require.Equal(t, http.StatusOK, w.Code)

	var items []models.ValidationResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "LAB1234", items[0].ServiceCode)
	assert.Equal(t, models.StatusRateCompliant, items[0].ValidationStatus)
}

func TestGetAuditLeakage(t *testing.T) {
	env := newServerEnv(t)
	env.seedCompletedRun(t, "run-1")

	w := env.get(t, "/api/v1/audits/run-1/leakage")
	require.Equal(t, http.StatusOK, w.Code)

	var report models.LeakageReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &report))
	assert.Equal(t, 700.0, report.TotalBilledAmount)
}

func TestGetAuditLeakage_PendingRun(t *testing.T) {
	env := newServerEnv(t)
	require.NoError(t, env.runs.Create(nil, &models.AuditRun{
		ID:       "run-pending",
		FileName: "bill.pdf",
		FilePath: "x",
		Scheme:   models.SchemeStandard,
		Status:   models.RunStatusPending,
	}))

	w := env.get(t, "/api/v1/audits/run-pending/leakage")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "not available")
}

func TestExportAudit_CSV(t *testing.T) {
	env := newServerEnv(t)
	env.seedCompletedRun(t, "run-1")

	w := env.get(t, "/api/v1/audits/run-1/export?format=csv")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "statement-audit.csv")

	body := w.Body.Bytes()
	assert.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}), "CSV starts with BOM")
	assert.Contains(t, string(body), "LAB1234")
}

func TestExportAudit_DefaultsToCSV(t *testing.T) {
	env := newServerEnv(t)
	env.seedCompletedRun(t, "run-1")

	w := env.get(t, "/api/v1/audits/run-1/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
}

func TestExportAudit_BadFormat(t *testing.T) {
	env := newServerEnv(t)
	env.seedCompletedRun(t, "run-1")

	w := env.get(t, "/api/v1/audits/run-1/export?format=yaml")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "unknown export format")
}

func TestExportAudit_RunNotCompleted(t *testing.T) {
	env := newServerEnv(t)
	require.NoError(t, env.runs.Create(nil, &models.AuditRun{
		ID:       "run-pending",
		FileName: "bill.pdf",
		FilePath: "x",
		Scheme:   models.SchemeStandard,
		Status:   models.RunStatusPending,
	}))

	w := env.get(t, "/api/v1/audits/run-pending/export?format=csv")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "run not completed")
}

func TestLookupRate(t *testing.T) {
	env := newServerEnv(t)

	w := env.get(t, "/api/v1/rates/lookup?scheme=STANDARD&code=LAB1234")
	require.Equal(t, http.StatusOK, w.Code)

	var entry RateEntryResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &entry))
	assert.Equal(t, "LAB1234", entry.ServiceCode)
	assert.Equal(t, "COMPLETE BLOOD COUNT", entry.ServiceName)
	assert.Equal(t, 350.0, entry.Rate)
}

func TestLookupRate_UnknownCode(t *testing.T) {
	env := newServerEnv(t)

	w := env.get(t, "/api/v1/rates/lookup?code=NOPE99")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestLookupRate_MissingCode(t *testing.T) {
	env := newServerEnv(t)

	w := env.get(t, "/api/v1/rates/lookup")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "missing code")
}

func TestLookupRate_BadScheme(t *testing.T) {
	env := newServerEnv(t)

	w := env.get(t, "/api/v1/rates/lookup?scheme=VIP&code=LAB1234")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "unknown scheme")
}
