package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/ng-cloudflare/plexrequest/pkg/records"
)

// NewRequestSubject is the subject of every new request notification.
const NewRequestSubject = "New Plex Request"

// Notification is an email handed to the delivery service.
type Notification struct {
	ToEmail string `json:"toEmail"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Notifier delivers a notification. Implementations make a single attempt.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NewRequestNotification formats the email announcing rec to recipient.
func NewRequestNotification(recipient string, rec records.Record) Notification {
	return Notification{
		ToEmail: recipient,
		Subject: NewRequestSubject,
		HTML: fmt.Sprintf(
			"<p>%s requested <strong>%s</strong> on Plex.</p><p>Why: %s</p>",
			html.EscapeString(rec.Who),
			html.EscapeString(rec.Title),
			html.EscapeString(rec.Why),
		),
	}
}
