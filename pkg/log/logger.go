package log

import (
	"io"
	"os"

	ipfslog "github.com/ipfs/go-log/v2"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Subsystem is the go-log subsystem name used when no explicit destination is given.
const Subsystem = "near-handshake"

// Logger is the structured, leveled logger used across the module.
type Logger interface {
	// Info takes a message and a set of key/value pairs and logs with level INFO.
	// The key of the tuple must be a string.
	Info(msg string, keyVals ...any)

	// Warn takes a message and a set of key/value pairs and logs with level WARN.
	// The key of the tuple must be a string.
	Warn(msg string, keyVals ...any)

	// Error takes a message and a set of key/value pairs and logs with level ERR.
	// The key of the tuple must be a string.
	Error(msg string, keyVals ...any)

	// Debug takes a message and a set of key/value pairs and logs with level DEBUG.
	// The key of the tuple must be a string.
	Debug(msg string, keyVals ...any)

	// With returns a new wrapped logger with additional context provided by a set.
	With(keyVals ...any) Logger

	// Impl returns the underlying *zap.SugaredLogger.
	Impl() any
}

type zapLogger struct {
	logger *zap.SugaredLogger
}

// NewLogger creates a logger writing to dst. A nil dst or os.Stdout hands the
// output over to the process-wide go-log configuration under Subsystem.
func NewLogger(dst io.Writer, options ...Option) Logger {
	config := &Config{
		Level: zapcore.InfoLevel,
	}
	for _, opt := range options {
		opt(config)
	}

	if dst == nil || dst == os.Stdout {
		logger := ipfslog.Logger(Subsystem)
		_ = ipfslog.SetLogLevel(Subsystem, config.Level.String())
		return FromEventLogger(logger)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if config.EnableJSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var zapOpts []zap.Option
	if config.Trace {
		zapOpts = append(zapOpts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(dst), config.Level)
	return &zapLogger{logger: zap.New(core, zapOpts...).Sugar()}
}

// FromEventLogger wraps a go-log subsystem logger, as returned by SetupLogging callers.
func FromEventLogger(l *ipfslog.ZapEventLogger) Logger {
	return &zapLogger{logger: &l.SugaredLogger}
}

// NewNopLogger creates a no-op logger.
func NewNopLogger() Logger {
	return &zapLogger{logger: zap.New(zapcore.NewNopCore()).Sugar()}
}

// NewTestLogger returns a debug level logger that writes through t.Log.
func NewTestLogger(t TestingT) Logger {
	return &zapLogger{logger: zaptest.NewLogger(t).Sugar()}
}

func (z *zapLogger) Info(msg string, keyVals ...any) {
	z.logger.Infow(msg, keyVals...)
}

func (z *zapLogger) Warn(msg string, keyVals ...any) {
	z.logger.Warnw(msg, keyVals...)
}

func (z *zapLogger) Error(msg string, keyVals ...any) {
	z.logger.Errorw(msg, keyVals...)
}

func (z *zapLogger) Debug(msg string, keyVals ...any) {
	z.logger.Debugw(msg, keyVals...)
}

func (z *zapLogger) With(keyVals ...any) Logger {
	return &zapLogger{logger: z.logger.With(keyVals...)}
}

func (z *zapLogger) Impl() any {
	return z.logger
}

// Option defines configuration options for the logger
type Option func(*Config)

// Config holds logger configuration
type Config struct {
	Level      zapcore.Level
	EnableJSON bool
	Trace      bool
}

// OutputJSONOption enables JSON output format
func OutputJSONOption() Option {
	return func(c *Config) {
		c.EnableJSON = true
	}
}

// LevelOption sets the log level
func LevelOption(level zerolog.Level) Option {
	return func(c *Config) {
		switch level {
		case zerolog.TraceLevel, zerolog.DebugLevel:
			c.Level = zapcore.DebugLevel
		case zerolog.WarnLevel:
			c.Level = zapcore.WarnLevel
		case zerolog.ErrorLevel:
			c.Level = zapcore.ErrorLevel
		case zerolog.FatalLevel, zerolog.PanicLevel:
			c.Level = zapcore.FatalLevel
		default:
			c.Level = zapcore.InfoLevel
		}
	}
}

// TraceOption attaches stack traces to error level entries.
func TraceOption(enabled bool) Option {
	return func(c *Config) {
		c.Trace = enabled
	}
}

// ParseLevel accepts the level names used in the configuration file
// ("trace", "debug", "info", "warn", "error").
func ParseLevel(s string) (zerolog.Level, error) {
	return zerolog.ParseLevel(s)
}

// TestingT is satisfied by *testing.T and *testing.B.
type TestingT = zaptest.TestingT
