package main

import (
	"context"
	"errors"
	"os"

	resmgr "github.com/alnah/go-resmgr"
	"github.com/alnah/go-resmgr/internal/config"
	"github.com/alnah/go-resmgr/internal/fetch"
)

// Exit codes for resmgr CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every page loaded
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, unreadable page
	ExitBrowser = 4 // Browser/Chrome errors
	ExitLoad    = 5 // A script or stylesheet failed to load
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Resource load failures (exit 5)
	if errors.Is(err, resmgr.ErrLoadFailed) {
		return ExitLoad
	}

	// Browser errors (exit 4)
	if errors.Is(err, resmgr.ErrBrowserConnect) ||
		errors.Is(err, resmgr.ErrPageCreate) ||
		errors.Is(err, resmgr.ErrPageLoad) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadPage) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, resmgr.ErrHTMLParse) ||
		errors.Is(err, fetch.ErrStatus) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrUnknownPlugin) ||
		errors.Is(err, config.ErrDuplicatePlugin) ||
		errors.Is(err, ErrNoPages) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrInvalidLogFormat) ||
		errors.Is(err, ErrOutputNeedsStatic) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, resmgr.ErrEmptyURL) {
		return ExitUsage
	}

	return ExitGeneral
}
