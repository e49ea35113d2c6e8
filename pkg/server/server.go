package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/ng-cloudflare/plexrequest/pkg/notify"
	"github.com/ng-cloudflare/plexrequest/pkg/passphrase"
	"github.com/ng-cloudflare/plexrequest/pkg/records"
)

var log = logging.Logger("server")

// NewRequestPath is the only path the server accepts.
const NewRequestPath = "/plex/new-request"

type config struct {
	policy    passphrase.Policy
	store     records.Store
	notifier  notify.Notifier
	recipient string
	origin    string
}

type Option func(*config)

// WithPolicy sets the passphrase policy submissions are checked against.
func WithPolicy(p passphrase.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithRecordStore configures where accepted requests are recorded.
func WithRecordStore(s records.Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithNotifier configures how new request emails are delivered.
func WithNotifier(n notify.Notifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

// WithRecipient sets the address new request notifications are sent to.
func WithRecipient(email string) Option {
	return func(c *config) {
		c.recipient = email
	}
}

// WithAllowedOrigin sets the Access-Control-Allow-Origin header sent with
// every response. An empty origin sends no header.
func WithAllowedOrigin(origin string) Option {
	return func(c *config) {
		c.origin = origin
	}
}

type Server struct {
	e *echo.Echo
}

// NewServer creates the plex request server.
func NewServer(opts ...Option) (*Server, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		return nil, errors.New("missing record store")
	}
	if c.notifier == nil {
		return nil, errors.New("missing notifier")
	}
	if c.recipient == "" {
		return nil, errors.New("missing notification recipient")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HandleError

	// Pre middleware runs before routing so unknown paths and methods are
	// logged and carry the CORS header too.
	e.Pre(LogMiddleware(log))
	e.Pre(corsMiddleware(c.origin))
	e.Pre(allowMethods(http.MethodPost))
	e.Use(echomiddleware.Recover())

	e.POST(NewRequestPath, newRequestHandler(c.policy, c.store, c.notifier, c.recipient))

	return &Server{e: e}, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Start listens on addr in the background and returns once the listener is up.
func (s *Server) Start(addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.e.Start(addr)
	}()
	return waitForServerStart(s.e, errCh, time.Second)
}

// Addr returns the address the server is listening on, nil before Start.
func (s *Server) Addr() net.Addr {
	return s.e.ListenerAddr()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func waitForServerStart(e *echo.Echo, errChan <-chan error, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			addr := e.ListenerAddr()
			if addr != nil && strings.Contains(addr.String(), ":") {
				return nil
			}
		case err := <-errChan:
			return err
		}
	}
}

// corsMiddleware sets the allowed origin on every response, error responses
// included.
func corsMiddleware(origin string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if origin == "" {
			return next
		}
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, origin)
			return next(c)
		}
	}
}

// allowMethods rejects any other method, whatever the path.
func allowMethods(methods ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, m := range methods {
				if c.Request().Method == m {
					return next(c)
				}
			}
			return NewError("AllowMethod", methodNotAllowedMessage, nil, http.StatusMethodNotAllowed).
				WithContext("method", c.Request().Method)
		}
	}
}
