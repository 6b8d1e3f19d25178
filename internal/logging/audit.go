package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names one step of a manifest run.
type AuditEventType string

const (
	AuditRunStart        AuditEventType = "run_start"
	AuditRunComplete     AuditEventType = "run_complete"
	AuditRunFailed       AuditEventType = "run_failed"
	AuditArtifactWritten AuditEventType = "artifact_written"
	AuditArtifactOmitted AuditEventType = "artifact_omitted"
	AuditDataWarning     AuditEventType = "data_warning"
	AuditInboxFile       AuditEventType = "inbox_file"
)

// AuditEvent is one JSON line in the audit log.
type AuditEvent struct {
	EventType  AuditEventType
	Group      string
	Target     string
	Success    bool
	DurationMs int64
	Error      string
	Message    string
	Fields     map[string]interface{}
}

var (
	auditMu   sync.Mutex
	auditFile *os.File
	auditZap  *zap.Logger
)

// AuditLogger writes audit events scoped to a single run.
type AuditLogger struct {
	runID string
}

// InitAudit opens the dated audit log. It is a no-op outside debug mode.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil
	}

	optsMu.RLock()
	dir := opts.Dir
	optsMu.RUnlock()

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("%s_audit.log", date))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.EpochMillisTimeEncoder
	auditFile = file
	auditZap = zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.InfoLevel))
	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	closeAuditLocked()
}

func closeAuditLocked() {
	if auditZap != nil {
		_ = auditZap.Sync()
		auditZap = nil
	}
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// AuditRun returns an audit logger that stamps every event with runID.
func AuditRun(runID string) *AuditLogger {
	return &AuditLogger{runID: runID}
}

// Log writes an audit event.
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditZap == nil {
		return
	}

	fields := []zap.Field{
		zap.String("event", string(event.EventType)),
		zap.String("run", a.runID),
		zap.Bool("success", event.Success),
	}
	if event.Group != "" {
		fields = append(fields, zap.String("group", event.Group))
	}
	if event.Target != "" {
		fields = append(fields, zap.String("target", event.Target))
	}
	if event.DurationMs > 0 {
		fields = append(fields, zap.Int64("dur_ms", event.DurationMs))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	if len(event.Fields) > 0 {
		fields = append(fields, zap.Any("fields", event.Fields))
	}
	auditZap.Info(event.Message, fields...)
}

// RunStart records the beginning of a run.
func (a *AuditLogger) RunStart(group string, inputs int, coldPickup bool) {
	a.Log(AuditEvent{
		EventType: AuditRunStart,
		Group:     group,
		Success:   true,
		Message:   fmt.Sprintf("run started with %d input(s)", inputs),
		Fields:    map[string]interface{}{"cold_pickup": coldPickup},
	})
}

// RunComplete records the end of a run.
func (a *AuditLogger) RunComplete(group string, artifacts int, durationMs int64, err error) {
	ev := AuditEvent{
		EventType:  AuditRunComplete,
		Group:      group,
		Success:    err == nil,
		DurationMs: durationMs,
		Message:    fmt.Sprintf("run finished with %d artifact(s)", artifacts),
	}
	if err != nil {
		ev.EventType = AuditRunFailed
		ev.Error = err.Error()
	}
	a.Log(ev)
}

// ArtifactWritten records one file added to the archive.
func (a *AuditLogger) ArtifactWritten(name string, size int, rows int) {
	a.Log(AuditEvent{
		EventType: AuditArtifactWritten,
		Target:    name,
		Success:   true,
		Fields:    map[string]interface{}{"bytes": size, "rows": rows},
	})
}

// ArtifactOmitted records an artifact that could not be produced.
func (a *AuditLogger) ArtifactOmitted(name, reason string) {
	a.Log(AuditEvent{
		EventType: AuditArtifactOmitted,
		Target:    name,
		Error:     reason,
	})
}

// DataWarning records a per-order degradation.
func (a *AuditLogger) DataWarning(orderID, field, message string) {
	a.Log(AuditEvent{
		EventType: AuditDataWarning,
		Target:    orderID,
		Success:   true,
		Message:   message,
		Fields:    map[string]interface{}{"field": field},
	})
}

// InboxFile records a file picked up by the watcher.
func (a *AuditLogger) InboxFile(path string, err error) {
	ev := AuditEvent{EventType: AuditInboxFile, Target: path, Success: err == nil}
	if err != nil {
		ev.Error = err.Error()
	}
	a.Log(ev)
}
