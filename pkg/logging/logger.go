package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled logging for suite components.
// All loggers created after Init write to the run's log file under
// ~/.securedocs-e2e/logs/<run-id>.log, and optionally to stderr.
type Logger struct {
	component string
	z         *zap.Logger
	s         *zap.SugaredLogger
}

// Options configures the process-wide log sink.
type Options struct {
	// Dir is the log directory. Defaults to ~/.securedocs-e2e/logs
	Dir string

	// Level is one of debug, info, warn, error
	Level string

	// Console additionally writes human-readable logs to stderr
	Console bool

	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep
	MaxBackups int
}

var (
	// Global run ID for the current execution
	runID     string
	runIDOnce sync.Once

	mu      sync.Mutex
	root    *zap.Logger
	logPath string
	sink    *lumberjack.Logger
)

// getRunID returns or creates the run ID for this execution
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// DefaultDir returns ~/.securedocs-e2e/logs.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".securedocs-e2e", "logs"), nil
}

// ParseLevel converts a level name to a zap level. Unknown names are an error.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Init installs the process-wide log sink: a JSON file core rotated by
// lumberjack plus an optional console core.
//
// If the log directory cannot be created, Init installs a stderr fallback
// and returns the error so callers can warn about it.
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	dir := opts.Dir
	if dir == "" {
		if dir, err = DefaultDir(); err != nil {
			install(newFallback(level), "", nil)
			return err
		}
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		install(newFallback(level), "", nil)
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 50
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 5
	}

	path := filepath.Join(dir, getRunID()+".log")
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(lj), level),
	}
	if opts.Console {
		cores = append(cores, consoleCore(level))
	}

	z := zap.New(zapcore.NewTee(cores...)).With(zap.String("run_id", getRunID()))
	install(z, path, lj)
	return nil
}

func consoleCore(level zapcore.Level) zapcore.Core {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
}

// newFallback creates a logger that writes to stderr when file logging fails
func newFallback(level zapcore.Level) *zap.Logger {
	return zap.New(consoleCore(level)).With(zap.String("run_id", getRunID()))
}

func install(z *zap.Logger, path string, lj *lumberjack.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		_ = sink.Close()
	}
	root = z
	logPath = path
	sink = lj
}

func current() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = newFallback(zapcore.InfoLevel)
	}
	return root
}

// NewLogger creates a logger for a specific component on the process-wide sink.
func NewLogger(component string) *Logger {
	return FromZap(current(), component)
}

// FromZap wraps an existing zap logger, e.g. one from zaptest.
func FromZap(z *zap.Logger, component string) *Logger {
	if component != "" {
		z = z.Named(component)
	}
	return &Logger{component: component, z: z, s: z.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return FromZap(zap.NewNop(), "")
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	s := l.s.With(keysAndValues...)
	return &Logger{component: l.component, z: s.Desugar(), s: s}
}

// Named returns a child logger for a sub-component.
func (l *Logger) Named(name string) *Logger {
	component := name
	if l.component != "" {
		component = l.component + "." + name
	}
	z := l.z.Named(name)
	return &Logger{component: component, z: z, s: z.Sugar()}
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...any) {
	l.s.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...any) {
	l.s.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...any) {
	l.s.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...any) {
	l.s.Errorf(format, v...)
}

// Writer returns an io.WriteCloser that logs each written line at debug
// level, for capturing subprocess output. Close flushes a trailing partial line.
func (l *Logger) Writer() io.WriteCloser {
	return &zapio.Writer{Log: l.z, Level: zapcore.DebugLevel}
}

// Zap exposes the underlying zap logger for structured fields.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Component returns the component name the logger was created for
func (l *Logger) Component() string {
	return l.component
}

// RunID returns the current global run ID
func RunID() string {
	return getRunID()
}

// LogPath returns the path of the run's log file, or "" when logging to stderr.
func LogPath() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Close flushes and closes the log file. Safe to call multiple times.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		_ = root.Sync()
	}
	var err error
	if sink != nil {
		err = sink.Close()
		sink = nil
	}
	root = nil
	logPath = ""
	return err
}
