package debug

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultPath is where NewLogger writes when debugging is on.
const DefaultPath = "debug.log"

type Logger struct {
	enabled bool
	sugar   *zap.SugaredLogger
}

// NewLogger writes to debug.log when enabled and discards everything
// otherwise.
func NewLogger(enabled bool) *Logger {
	return NewFileLogger(enabled, DefaultPath)
}

func NewFileLogger(enabled bool, path string) *Logger {
	if !enabled {
		return &Logger{sugar: zap.NewNop().Sugar()}
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		// Could not open the file; stderr is the next best place.
		logger = zap.NewExample()
	}

	l := &Logger{enabled: true, sugar: logger.Sugar()}
	l.Printf("=== DEBUG MODE ENABLED ===")
	return l
}

// FromZap wraps an existing zap logger.
func FromZap(logger *zap.Logger) *Logger {
	return &Logger{enabled: true, sugar: logger.Sugar()}
}

func (d *Logger) Enabled() bool {
	return d != nil && d.enabled
}

func (d *Logger) Printf(format string, args ...interface{}) {
	if d.Enabled() {
		d.sugar.Debugf(format, args...)
	}
}

func (d *Logger) Println(args ...interface{}) {
	if d.Enabled() {
		d.sugar.Debugln(args...)
	}
}

func (d *Logger) Warnf(format string, args ...interface{}) {
	if d.Enabled() {
		d.sugar.Warnf(format, args...)
	}
}

// With returns a logger that adds the given key/value pairs to every entry.
func (d *Logger) With(keysAndValues ...interface{}) *Logger {
	if !d.Enabled() {
		return d
	}
	return &Logger{enabled: true, sugar: d.sugar.With(keysAndValues...)}
}

func (d *Logger) Sync() error {
	if !d.Enabled() {
		return nil
	}
	return d.sugar.Sync()
}
