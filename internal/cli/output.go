package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"puntos/internal/core"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // storage or integrity failure
	ExitCommandError = 2 // bad flags, bad input, bad configuration
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error. Validation and
// configuration errors are the caller's fault; everything else is a failure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrConfiguration):
		return ExitCommandError
	default:
		return ExitFailure
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope for --format json.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Success writes data as JSON, or calls text to render it for humans.
func (f *OutputFormatter) Success(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return f.writeJSON(CLIResponse{Status: "ok", Data: data})
	}
	return text(f.Writer)
}

// Error reports err in the configured format and returns it wrapped with
// its exit code so main can exit accordingly.
func (f *OutputFormatter) Error(err error) error {
	code := GetExitCode(err)
	if f.Format == "json" {
		cliErr := &CLIError{Code: errorCode(err), Message: err.Error()}
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			cliErr.Field = verr.Field
			cliErr.Message = verr.Reason
		}
		if werr := f.writeJSON(CLIResponse{Status: "error", Error: cliErr}); werr != nil {
			return werr
		}
		return &ExitError{Code: code, Message: "command failed", Err: err}
	}
	return &ExitError{Code: code, Message: "command failed", Err: err}
}

func (f *OutputFormatter) writeJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, core.ErrConfiguration):
		return "CONFIGURATION_ERROR"
	case errors.Is(err, core.ErrStorageWrite):
		return "STORAGE_WRITE_FAILED"
	case errors.Is(err, core.ErrDataIntegrity):
		return "DATA_INTEGRITY"
	default:
		return "ERROR"
	}
}
