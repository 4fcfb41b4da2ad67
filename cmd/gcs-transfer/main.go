package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SaiNageswarS/gcs-transfer/logger"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer func() { _ = logger.Get().Sync() }()

	err := NewRoot().Execute()
	if err != nil {
		reportError(os.Stdout, err)
	}
	return exitCode(err)
}

// reportError is the single recovery point: the failure is printed and logged.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "An error occurred: %v\n", err)
	logger.Error("gcs-transfer failed", zap.Error(err))
}

// exitCode keeps a normal exit for reported errors. Only a key fetch with
// failed keys exits non-zero.
func exitCode(err error) int {
	if errors.Is(err, errKeyDownloadsFailed) {
		return 1
	}
	return 0
}
