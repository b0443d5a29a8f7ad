// Package logging provides the run log shared by every component of a
// capture run. Entries are JSON lines written to one file per run.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogDirectory is where run logs go unless SetLogDirectory is called.
const DefaultLogDirectory = "logs"

// Logger writes structured entries for one component. All loggers created
// during a process share the run id and the log file.
type Logger struct {
	runID     string
	component string
	sugar     *zap.SugaredLogger
	file      *os.File
	logPath   string
	closeOnce sync.Once
}

var (
	// Global run ID for the current execution
	runID     string
	runIDOnce sync.Once

	logDir   = DefaultLogDirectory
	logDirMu sync.Mutex

	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// SetLogDirectory changes the directory new loggers write to.
func SetLogDirectory(dir string) {
	logDirMu.Lock()
	defer logDirMu.Unlock()
	logDir = dir
}

// SetLevel sets the minimum level written by every logger.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

func currentLogDir() string {
	logDirMu.Lock()
	defer logDirMu.Unlock()
	return logDir
}

// NewLogger creates a logger for a component. It writes to
// <log dir>/materials-<run id>.log.
//
// If the directory or file cannot be opened, it returns a logger that writes
// to stderr along with the error, so callers can warn and carry on.
func NewLogger(component string) (*Logger, error) {
	dir := currentLogDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		err = fmt.Errorf("failed to create log directory: %w", err)
		return newFallbackLogger(component, err), err
	}

	id := getRunID()
	logPath := filepath.Join(dir, fmt.Sprintf("materials-%s.log", id))

	// Append mode: several components share the file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	core := zapcore.NewCore(jsonEncoder(), zapcore.Lock(file), level)
	return &Logger{
		runID:     id,
		component: component,
		sugar:     newSugar(core, component, id),
		file:      file,
		logPath:   logPath,
	}, nil
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	l := &Logger{
		runID:     getRunID(),
		component: component,
		sugar:     newSugar(core, component, getRunID()),
	}
	l.sugar.Warnf("file logging unavailable, using stderr: %v", err)
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{component: "discard", sugar: zap.NewNop().Sugar()}
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func newSugar(core zapcore.Core, component, id string) *zap.SugaredLogger {
	return zap.New(core).With(
		zap.String("component", component),
		zap.String("run_id", id),
	).Sugar()
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Infow logs a message with structured key/value pairs.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warnw logs a warning with structured key/value pairs.
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Component returns the component name the logger was created for.
func (l *Logger) Component() string {
	return l.component
}

// RunID returns the run ID shared by all loggers of this process.
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, or "" for stderr and discard loggers.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close flushes and closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		_ = l.sugar.Sync()
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetRunID returns the current global run ID
func GetRunID() string {
	return getRunID()
}
