package testutil

import (
	"os"
	"testing"

	"github.com/SaiNageswarS/gcs-transfer/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ObserveLogs swaps the global logger for an in-memory one that records every
// entry at or above level. The original logger is restored when the test ends.
func ObserveLogs(t testing.TB, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(level)
	original := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = original })

	return logs
}

// InTempDir switches the working directory to a fresh temp dir for the
// duration of the test and returns its path.
func InTempDir(t testing.TB) string {
	t.Helper()

	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir temp: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	return dir
}
