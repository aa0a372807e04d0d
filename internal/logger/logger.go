// Package logger provides debug logging for quadverify.
//
// Hook processes share stderr and stdout with the host protocol, so debug
// output goes to a rotating file under ~/.claude instead of a terminal.
// Protocol-visible diagnostics go through Stderr, which applies the
// mandatory prefix.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/customgpt/quadverify/internal/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log     *zap.SugaredLogger
	once    sync.Once
	verbose bool
)

// Options configures the logger.
type Options struct {
	// Verbose enables debug logging even without QUADVERIFY_DEBUG=1
	Verbose bool
	// Path overrides the log file location (defaults to ~/.claude/quadverify-debug.log)
	Path string
	// Output overrides the sink entirely, bypassing the rotating file.
	// Used by tests.
	Output io.Writer
}

// Init initializes the global logger with the given options.
// It is safe to call multiple times; only the first call takes effect.
func Init(opts Options) {
	once.Do(func() {
		verbose = opts.Verbose || os.Getenv(constants.EnvDebug) == "1"
		if !verbose {
			log = zap.NewNop().Sugar()
			return
		}

		var sink zapcore.WriteSyncer
		if opts.Output != nil {
			sink = zapcore.AddSync(opts.Output)
			initCore(sink)
			return
		}

		path := opts.Path
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log = zap.NewNop().Sugar()
				return
			}
			path = filepath.Join(home, constants.ClaudeConfigDir, constants.DebugLogFile)
		}
		if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
			log = zap.NewNop().Sugar()
			return
		}

		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		})
		initCore(sink)
		log.Debugw("debug logging started", "pid", os.Getpid())
	})
}

func initCore(sink zapcore.WriteSyncer) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, zapcore.DebugLevel)
	log = zap.New(core).Sugar()
}

// Reset resets the logger for testing purposes.
// This should only be used in tests.
func Reset() {
	once = sync.Once{}
	log = nil
	verbose = false
}

// IsVerbose returns true if verbose logging is enabled.
func IsVerbose() bool {
	return verbose
}

// Debug logs at debug level with key-value pairs.
func Debug(msg string, args ...any) {
	if log != nil {
		log.Debugw(msg, args...)
	}
}

// Info logs at info level with key-value pairs.
func Info(msg string, args ...any) {
	if log != nil {
		log.Infow(msg, args...)
	}
}

// Warn logs at warn level with key-value pairs.
func Warn(msg string, args ...any) {
	if log != nil {
		log.Warnw(msg, args...)
	}
}

// Error logs at error level with key-value pairs.
func Error(msg string, args ...any) {
	if log != nil {
		log.Errorw(msg, args...)
	}
}

// With returns a logger with additional context attributes.
func With(args ...any) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log.With(args...)
}

// Sync flushes any buffered log entries.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

// Stderr writes a prefixed diagnostic line to stderr. This is the only
// sanctioned way to reach the host-visible error stream.
func Stderr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, constants.DiagPrefix+format+"\n", args...)
}
