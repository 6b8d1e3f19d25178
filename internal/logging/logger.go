// Package logging provides config-driven categorized file-based logging for the
// manifest generator. Each category writes to its own file under the logs
// directory. When debug mode is off, every logger is a silent no-op.
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

// Category represents a log category/stage of a run.
type Category string

const (
	CategoryBoot      Category = "boot"      // CLI startup, config loading
	CategoryIngest    Category = "ingest"    // CSV parsing and grouping
	CategoryAggregate Category = "aggregate" // line-item totals and record building
	CategoryClassify  Category = "classify"  // carrier bucket assignment
	CategoryDocuments Category = "documents" // CX-Ready, Polar Parcel, DK projections
	CategoryExport    Category = "export"    // spreadsheet/CSV writers and archive
	CategoryWatch     Category = "watch"     // inbox watcher
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryBoot,
	CategoryIngest,
	CategoryAggregate,
	CategoryClassify,
	CategoryDocuments,
	CategoryExport,
	CategoryWatch,
}

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Dir        string
	Level      string
	DebugMode  bool
	JSONFormat bool
	Categories map[string]bool
}

// Logger writes formatted messages for one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	opts      Options
	optsMu    sync.RWMutex
	level     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize applies options and creates the logs directory when debug mode
// is on. It may be called again to reconfigure; open files are closed first.
func Initialize(o Options) error {
	CloseAll()

	optsMu.Lock()
	opts = o
	optsMu.Unlock()

	if err := level.UnmarshalText([]byte(o.Level)); err != nil || o.Level == "" {
		level.SetLevel(zapcore.InfoLevel)
	}

	if !o.DebugMode {
		return nil
	}
	if o.Dir == "" {
		return fmt.Errorf("logs directory required in debug mode")
	}
	if err := os.MkdirAll(o.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	Boot("logging initialized: dir=%s level=%s", o.Dir, level.Level())
	return nil
}

// IsDebugMode returns whether category logging is enabled at all.
func IsDebugMode() bool {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return opts.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	optsMu.RLock()
	defer optsMu.RUnlock()

	if !opts.DebugMode {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	optsMu.RLock()
	dir, jsonFormat := opts.Dir, opts.JSONFormat
	optsMu.RUnlock()

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		sugar:    zap.New(newCore(file, jsonFormat)).Sugar().With("cat", string(category)),
	}
	loggers[category] = l
	return l
}

func newCore(file *os.File, jsonFormat bool) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if jsonFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewCore(enc, zapcore.AddSync(file), level)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// With returns a logger that attaches key-value context to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, file: l.file, sugar: l.sugar.With(keysAndValues...)}
}

// CloseAll flushes and closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	for _, l := range loggers {
		if l.sugar != nil {
			_ = l.sugar.Sync()
		}
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()

	CloseAudit()
}

// =============================================================================
// CONVENIENCE FUNCTIONS - no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// Ingest logs to the ingest category
func Ingest(format string, args ...interface{}) {
	Get(CategoryIngest).Info(format, args...)
}

// IngestDebug logs debug to the ingest category
func IngestDebug(format string, args ...interface{}) {
	Get(CategoryIngest).Debug(format, args...)
}

// Aggregate logs to the aggregate category
func Aggregate(format string, args ...interface{}) {
	Get(CategoryAggregate).Info(format, args...)
}

// AggregateDebug logs debug to the aggregate category
func AggregateDebug(format string, args ...interface{}) {
	Get(CategoryAggregate).Debug(format, args...)
}

// Classify logs to the classify category
func Classify(format string, args ...interface{}) {
	Get(CategoryClassify).Info(format, args...)
}

// ClassifyDebug logs debug to the classify category
func ClassifyDebug(format string, args ...interface{}) {
	Get(CategoryClassify).Debug(format, args...)
}

// Documents logs to the documents category
func Documents(format string, args ...interface{}) {
	Get(CategoryDocuments).Info(format, args...)
}

// Export logs to the export category
func Export(format string, args ...interface{}) {
	Get(CategoryExport).Info(format, args...)
}

// ExportWarn logs a warning to the export category
func ExportWarn(format string, args ...interface{}) {
	Get(CategoryExport).Warn(format, args...)
}

// Watch logs to the watch category
func Watch(format string, args ...interface{}) {
	Get(CategoryWatch).Info(format, args...)
}

// WatchDebug logs debug to the watch category
func WatchDebug(format string, args ...interface{}) {
	Get(CategoryWatch).Debug(format, args...)
}
