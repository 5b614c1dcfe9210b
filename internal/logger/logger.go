package logger

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"docvault/internal/config"
)

// New builds the process logger from configuration and writes to stdout.
// JSON output is the default; LOG_FORMAT=console switches to the human readable encoder.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return NewWithWriter(os.Stdout, level, cfg.Format, cfg.TimeLocation()), nil
}

// NewWithWriter builds a logger writing one entry per line to w.
// Timestamps are emitted under "ts" as RFC3339Nano in loc.
func NewWithWriter(w io.Writer, level zapcore.Level, format string, loc *time.Location) *zap.Logger {
	if loc == nil {
		loc = time.UTC
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format(time.RFC3339Nano))
	}
	encCfg.EncodeDuration = zapcore.MillisDurationEncoder

	var enc zapcore.Encoder
	if format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

// Nop returns a logger that discards everything. Handy for tests.
func Nop() *zap.Logger {
	return zap.NewNop()
}
