package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("notify")

// DefaultTimeout bounds a single delivery attempt when no client is given.
const DefaultTimeout = 10 * time.Second

// ErrFailedResponse is returned when the email service answers with a non 2xx
// status.
type ErrFailedResponse struct {
	StatusCode int
	Body       string
}

func errFromResponse(res *http.Response) ErrFailedResponse {
	err := ErrFailedResponse{StatusCode: res.StatusCode}

	message, merr := io.ReadAll(res.Body)
	if merr != nil {
		err.Body = merr.Error()
	} else {
		err.Body = string(message)
	}
	return err
}

func (e ErrFailedResponse) Error() string {
	return fmt.Sprintf("http request failed, status: %d %s, message: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// HTTPNotifier POSTs notifications as JSON to a separately deployed email
// sending service.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
}

var _ Notifier = (*HTTPNotifier)(nil)

// NewHTTPNotifier creates a notifier for the service at endpoint. A nil client
// gets one with DefaultTimeout.
func NewHTTPNotifier(client *http.Client, endpoint string) *HTTPNotifier {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPNotifier{endpoint: endpoint, client: client}
}

// Notify implements Notifier.
func (h *HTTPNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("generating http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errFromResponse(res)
	}
	log.Debugw("notification sent", "endpoint", h.endpoint, "status", res.StatusCode)
	return nil
}
