package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/ng-cloudflare/plexrequest/pkg/build"
)

// SetupErrorReporting configures the Sentry SDK for error reporting. Reporting
// stays disabled when dsn is empty.
func SetupErrorReporting(dsn string, environment string) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     build.Version,
		Transport:   sentry.NewHTTPSyncTransport(),
	})
	if err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	return nil
}

// NewErrorReportingHandler wraps handler so panics are captured by Sentry. The
// panic is re-raised so the handler's own recovery still applies.
func NewErrorReportingHandler(handler http.Handler) http.Handler {
	sentryHandler := sentryhttp.New(sentryhttp.Options{
		Repanic: true,
		Timeout: 2 * time.Second,
	})
	return sentryHandler.Handle(handler)
}

// ReportError reports an error to Sentry. It is a no-op when reporting has not
// been set up.
func ReportError(err error) {
	sentry.CaptureException(err)
}

// Flush waits for buffered events to be delivered.
func Flush() {
	sentry.Flush(2 * time.Second)
}
