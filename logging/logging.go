// Package logging builds the structured logger shared by the store,
// session, and CLI layers. Grounded on go.uber.org/zap's use in
// other_examples' objectstore.go (a *zap.Logger field, constructor-injected,
// defaulting to zap.NewNop() rather than a package-global logger).
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/transitdb/transit/errors"
)

// New builds a *zap.Logger at the given level ("debug", "info", "warn", or
// "error"), using zap's JSON encoder when json is true and its
// human-readable console encoder otherwise.
func New(level string, json bool) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if !json {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	log, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(errors.Config, err, "building logger")
	}
	return log, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, errors.Newf(errors.Config, "unknown log level %q", level)
	}
}

// Nop returns a logger that discards everything, for tests and for
// components constructed without explicit configuration (mirroring
// other_examples' NewObjectStore(nil) -> zap.NewNop() fallback).
func Nop() *zap.Logger { return zap.NewNop() }
