package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// Audit record types
const (
	RecordRunCreated = "run_created"
	RecordRunSaved   = "run_saved"
)

// AuditRecord is a line of the run audit log
type AuditRecord struct {
	Type       string `json:"type"`
	TimeMS     int64  `json:"t_ms"`
	Input      *Input `json:"input,omitempty"`
	DurationMS *int64 `json:"duration_ms,omitempty"`
}

// AuditLog appends JSONL records to <dir>/<run_id>.jsonl.
// Write failures are logged and never returned to the caller.
type AuditLog struct {
	dir  string
	lock sync.Mutex
}

// NewAuditLog returns the audit log in dir, creating the folder if needed
func NewAuditLog(dir string) *AuditLog {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.KV(xlog.ERROR, "reason", "mkdir", "dir", dir, "err", err.Error())
	}
	return &AuditLog{dir: dir}
}

// Dir returns the log folder
func (a *AuditLog) Dir() string {
	return a.dir
}

// Path returns the log file for the run
func (a *AuditLog) Path(runID string) string {
	return filepath.Join(a.dir, runID+".jsonl")
}

// Append writes the record as a single line
func (a *AuditLog) Append(ctx context.Context, runID string, rec *AuditRecord) {
	if a == nil {
		return
	}
	if err := a.append(runID, rec); err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "audit_append",
			"run_id", runID,
			"type", rec.Type,
			"err", err.Error())
	}
}

func (a *AuditLog) append(runID string, rec *AuditRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return errors.Wrap(err, "failed to encode audit record")
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	f, err := os.OpenFile(a.Path(runID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open audit log")
	}
	defer f.Close()

	if _, err = f.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write audit log")
	}
	return nil
}

// ReadAudit returns the records of the run log
func (a *AuditLog) ReadAudit(runID string) ([]*AuditRecord, error) {
	data, err := os.ReadFile(a.Path(runID))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read audit log")
	}
	var list []*AuditRecord
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		rec := new(AuditRecord)
		if err := json.Unmarshal(line, rec); err != nil {
			return nil, errors.Wrapf(err, "invalid audit record")
		}
		list = append(list, rec)
	}
	return list, nil
}
