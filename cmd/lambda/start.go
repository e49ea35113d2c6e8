package lambda

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/ng-cloudflare/plexrequest/internal/telemetry"
	"github.com/ng-cloudflare/plexrequest/pkg/aws"
)

// HTTPHandlerBuilder is a function that creates a http.Handler from a config.
type HTTPHandlerBuilder func(aws.Config) (http.Handler, error)

// StartHTTPHandler starts a lambda handler that processes HTTP requests.
func StartHTTPHandler(makeHandler HTTPHandlerBuilder) {
	ctx := context.Background()
	cfg := aws.FromEnv(ctx)
	if err := telemetry.SetupErrorReporting(cfg.App.Telemetry.SentryDSN, cfg.App.Telemetry.SentryEnvironment); err != nil {
		panic(err)
	}

	handler, err := makeHandler(cfg)
	if err != nil {
		telemetry.ReportError(err)
		telemetry.Flush()
		panic(err)
	}

	lambda.StartWithOptions(httpadapter.NewV2(telemetry.NewErrorReportingHandler(handler)).ProxyWithContext, lambda.WithContext(ctx))
}
