package exitcode

import (
	"errors"
	"os"
	"strings"

	apperrors "github.com/felixgeelhaar/prioritizer/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates missing or invalid configuration
	ConfigError = 3

	// UpstreamError indicates an AI provider failure
	UpstreamError = 4

	// StorageError indicates a session storage failure
	StorageError = 5

	// Interrupted indicates the process was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	// Coded errors map directly
	var perr *apperrors.PrioritizerError
	if errors.As(err, &perr) {
		switch {
		case strings.HasPrefix(string(perr.Code), "CONFIG-"):
			return ConfigError
		case strings.HasPrefix(string(perr.Code), "UPSTREAM-"):
			return UpstreamError
		case strings.HasPrefix(string(perr.Code), "STORAGE-"):
			return StorageError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "api key") || strings.Contains(errMsg, "config") {
		return ConfigError
	}

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "connection") {
		return UpstreamError
	}

	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "required flag") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case UpstreamError:
		return "AI provider error"
	case StorageError:
		return "Session storage error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
