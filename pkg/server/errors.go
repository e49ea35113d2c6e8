package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ng-cloudflare/plexrequest/internal/telemetry"
)

// reportError sends unexpected failures to error reporting.
var reportError = telemetry.ReportError

// ContextualError is an error that knows how it should be presented to the
// submitter and how it should be logged.
type ContextualError interface {
	error
	// StatusCode returns the HTTP status code that should be returned to the client
	StatusCode() int
	// LogContext returns a map of additional context for logging
	LogContext() map[string]interface{}
	// PublicMessage returns a message safe to return to the client
	PublicMessage() string
	// OriginalError returns the underlying error, if any
	OriginalError() error
}

// RequestError implements the ContextualError interface
type RequestError struct {
	Operation     string                 // The gate or step that failed (e.g., "CheckPassphrase")
	Message       string                 // Internal error message (for logs)
	ClientMessage string                 // Message safe to return to clients
	Code          int                    // HTTP status code
	Err           error                  // Original error, if any
	Context       map[string]interface{} // Additional context for logging
}

var _ ContextualError = (*RequestError)(nil)

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *RequestError) StatusCode() int {
	return e.Code
}

func (e *RequestError) LogContext() map[string]interface{} {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx["operation"] = e.Operation
	return ctx
}

func (e *RequestError) PublicMessage() string {
	if e.ClientMessage != "" {
		return e.ClientMessage
	}
	return http.StatusText(e.Code)
}

func (e *RequestError) OriginalError() error {
	return e.Err
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewError creates a new RequestError
func NewError(operation string, message string, err error, code int) *RequestError {
	return &RequestError{
		Operation:     operation,
		Message:       message,
		ClientMessage: message,
		Code:          code,
		Err:           err,
		Context:       make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *RequestError) WithContext(key string, value interface{}) *RequestError {
	e.Context[key] = value
	return e
}

// WithPublicMessage sets a client-safe message
func (e *RequestError) WithPublicMessage(message string) *RequestError {
	e.ClientMessage = message
	return e
}

// Response bodies for the router's own failures.
const (
	notFoundMessage         = "Not found"
	methodNotAllowedMessage = "Method not allowed"
)

// HandleError converts any error to a plain text HTTP response.
func HandleError(err error, c echo.Context) {
	if err == nil || c.Response().Committed {
		return
	}

	var cErr ContextualError
	if errors.As(err, &cErr) {
		_ = c.String(cErr.StatusCode(), cErr.PublicMessage())
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			_ = c.String(he.Code, notFoundMessage)
		case http.StatusMethodNotAllowed:
			_ = c.String(he.Code, methodNotAllowedMessage)
		default:
			_ = c.String(he.Code, http.StatusText(he.Code))
		}
		return
	}

	// panics recovered by echo end up here too
	reportError(err)
	_ = c.String(http.StatusInternalServerError, "Internal server error")
}
