// Package logging builds the zap logger shared by the CLI, the tmux host
// and the engine. Output goes to stderr so picker and list output on
// stdout stay clean.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLevel = "warn"

// New returns a console logger at level ("debug", "info", "warn",
// "error"). An empty level means DefaultLevel.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Development:       development,
		Encoding:          "console",
		EncoderConfig:     encoderConfig(development),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !development,
		DisableStacktrace: !development,
	}
	return cfg.Build()
}

// Must is New for callers that would rather run silent than fail.
func Must(level string, development bool) *zap.Logger {
	l, err := New(level, development)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		level = DefaultLevel
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log level %q: %w", level, err)
	}
	return l, nil
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if development {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}
