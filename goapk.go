package goapk

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
)

// VersionCore is the SemVer core of the running version of goapk.
const VersionCore = "0.3.1"

// SemVer returns the version of goapk.
func SemVer() string {
	semver := VersionCore

	if prerelease := os.Getenv("GOAPK_PRERELEASE"); prerelease != "" {
		semver += "-" + prerelease
	}

	if build := os.Getenv("GOAPK_BUILD"); build != "" {
		semver += "+" + build
	}

	return semver
}

// NewLogger returns a logr.Logger writing human-readable
// lines to stderr.
func NewLogger(verbosity int) logr.Logger {
	return logr.FromSlogHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(int(slog.LevelError) - 4*verbosity),
	}))
}

func WithLogger(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

func LoggerFrom(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
