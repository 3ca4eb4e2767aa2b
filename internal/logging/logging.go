// Package logging builds the zap logger shared by the deqpkit commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel keeps routine job chatter out of the terminal.
const DefaultLevel = "warn"

// ParseLevel accepts debug, info, warn, error and off.
func ParseLevel(s string) (zapcore.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return zapcore.InvalidLevel, false, nil
	case "":
		s = DefaultLevel
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InvalidLevel, false, fmt.Errorf("unknown log level %q (expected: debug|info|warn|error|off)", s)
	}
	return lvl, true, nil
}

// New returns a console logger writing to w (stderr when nil).
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl, enabled, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return zap.NewNop(), nil
	}
	if w == nil {
		w = os.Stderr
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}
