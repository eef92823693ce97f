package models

import "time"

// Audit run status constants
const (
	RunStatusPending    = "PENDING"
	RunStatusProcessing = "PROCESSING"
	RunStatusCompleted  = "COMPLETED"
	RunStatusFailed     = "FAILED"
)

// AuditRun is one persisted audit of one uploaded bill document.
// The *JSON fields hold serialized report blobs; API responses decode them
// instead of echoing double-encoded strings.
type AuditRun struct {
	ID                 string     `json:"id"`
	FileName           string     `json:"file_name"`
	FilePath           string     `json:"file_path"`
	Scheme             Scheme     `json:"scheme"`
	SchemeOverridden   bool       `json:"scheme_overridden"` // caller forced the scheme
	Status             string     `json:"status"`
	ItemCount          int        `json:"item_count"`
	TotalBilledAmount  float64    `json:"total_billed_amount"`
	TotalLeakageAmount float64    `json:"total_leakage_amount"`
	HeaderJSON         string     `json:"-"`
	ConcessionJSON     string     `json:"-"`
	LeakageJSON        string     `json:"-"`
	MetricsJSON        string     `json:"-"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the run has finished, successfully or not.
func (r *AuditRun) IsTerminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}
