package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogMiddleware returns a middleware that logs requests using the IPFS go-log logger
func LogMiddleware(logger *logging.ZapEventLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			path := req.URL.Path
			if path == "" {
				path = "/"
			}

			statusCode := res.Status
			logMsg := fmt.Sprintf("[%d:%s] %s %s", statusCode, http.StatusText(statusCode), req.Method, path)
			logFields := buildLogFields(c, req, res, id, latency, err, logger.Level())

			switch {
			case statusCode >= 500:
				logger.Errorw(logMsg, logFields...)
			case statusCode >= 400:
				logger.Warnw(logMsg, logFields...)
			default:
				logger.Infow(logMsg, logFields...)
			}

			// the response has been written by c.Error
			return nil
		}
	}
}

// buildLogFields constructs log fields appropriate for the current log level
func buildLogFields(c echo.Context, req *http.Request, res *echo.Response, id string, latency time.Duration, err error, level zapcore.Level) []interface{} {
	fields := []interface{}{
		"id", id,
		"latency", latency.String(),
	}

	if level == zap.DebugLevel {
		fields = append(fields,
			"remote_ip", c.RealIP(),
			"host", req.Host,
			"origin", req.Header.Get(echo.HeaderOrigin),
			"user_agent", req.UserAgent(),
			"bytes_in", req.ContentLength,
			"bytes_out", res.Size,
		)
	}

	if err != nil {
		fields = append(fields, "error", err.Error(), "error_type", getErrorType(err))

		var contextErr ContextualError
		if errors.As(err, &contextErr) {
			if level <= zap.InfoLevel {
				if operation, ok := contextErr.LogContext()["operation"]; ok {
					fields = append(fields, "operation", operation)
				}
			} else {
				for k, v := range contextErr.LogContext() {
					fields = append(fields, k, v)
				}
			}
			if origErr := contextErr.OriginalError(); origErr != nil {
				fields = append(fields, "cause", origErr.Error())
			}
		}
	}

	return fields
}

// getErrorType extracts the type name of the error
func getErrorType(err error) string {
	var httpErr *echo.HTTPError
	var contextErr ContextualError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &httpErr):
		return "echo.HTTPError"
	case errors.As(err, &contextErr):
		return "ContextualError"
	default:
		return "error"
	}
}
