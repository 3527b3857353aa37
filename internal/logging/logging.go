// Package logging builds the zap loggers used by the rsaprime command.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatLogfmt  = "logfmt"
)

// Config is used to build a logger.
type Config struct {
	// Level is a zap level name (debug, info, warn, error). Empty means info.
	Level string

	// Format is "console", "json" or "logfmt". Empty means console.
	Format string

	// Writer is the sink for encoded records. Nil means os.Stderr.
	Writer io.Writer
}

// New creates a logger from c.
func New(c Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(c.Level))); err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", c.Level)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.NameKey = "name"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(c.Format) {
	case "", FormatConsole:
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case FormatLogfmt:
		encoder = zaplogfmt.NewEncoder(encoderConfig)
	default:
		return nil, errors.Errorf("unknown log format %q", c.Format)
	}

	w := c.Writer
	if w == nil {
		w = os.Stderr
	}

	var sink zapcore.WriteSyncer
	switch t := w.(type) {
	case *os.File:
		sink = zapcore.Lock(t)
	case zapcore.WriteSyncer:
		sink = t
	default:
		sink = zapcore.AddSync(w)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
