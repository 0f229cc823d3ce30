package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the backend answered but the operation failed
	ExitCommandError = 2 // bad arguments, missing configuration, unreadable files
)

// ExitError carries the exit code a command wants.
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

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that are not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Output renders results as JSON or as the text produced by a Texter.
type Output struct {
	Format string
	Writer io.Writer
}

// Texter is implemented by results with a human-readable form.
type Texter interface {
	Text(w io.Writer)
}

type response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (o *Output) Success(data any) error {
	if o.Format == "json" {
		return json.NewEncoder(o.Writer).Encode(response{Status: "ok", Data: data})
	}
	if t, ok := data.(Texter); ok {
		t.Text(o.Writer)
		return nil
	}
	fmt.Fprintln(o.Writer, data)
	return nil
}

func (o *Output) Error(err error) {
	if o.Format == "json" {
		_ = json.NewEncoder(o.Writer).Encode(response{Status: "error", Error: err.Error()})
		return
	}
	fmt.Fprintf(o.Writer, "Error: %v\n", err)
}
