package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ng-cloudflare/plexrequest/pkg/notify"
	"github.com/ng-cloudflare/plexrequest/pkg/passphrase"
	"github.com/ng-cloudflare/plexrequest/pkg/records"
	"github.com/ng-cloudflare/plexrequest/pkg/request"
)

const (
	missingFieldsMessage   = "Missing required fields"
	wrongPassphraseMessage = "Incorrect passphrase"
	recordFailedMessage    = "Failed to add record"
)

// newRequestHandler records a plex request and emails the recipient about it.
//
// A record store failure fails the request with 502 and no email is sent. A
// notification failure is reported but the submitter still gets 201, since
// the record exists.
func newRequestHandler(policy passphrase.Policy, store records.Store, notifier notify.Notifier, recipient string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sub, err := request.Decode(c.Request().Body)
		if err != nil {
			return NewError("DecodeSubmission", missingFieldsMessage, err, http.StatusBadRequest)
		}
		if err := sub.Validate(); err != nil {
			return NewError("ValidateSubmission", missingFieldsMessage, err, http.StatusBadRequest)
		}
		if !policy.Match(sub.Passphrase) {
			return NewError("CheckPassphrase", wrongPassphraseMessage, nil, http.StatusUnauthorized).
				WithContext("who", sub.Who).
				WithContext("policy", policy.Kind().String())
		}

		rec := sub.Record()
		if err := store.Add(ctx, rec); err != nil {
			reportError(err)
			return NewError("AddRecord", "adding record to store", err, http.StatusBadGateway).
				WithPublicMessage(recordFailedMessage).
				WithContext("title", rec.Title)
		}

		if err := notifier.Notify(ctx, notify.NewRequestNotification(recipient, rec)); err != nil {
			reportError(err)
			log.Errorw("sending new request notification", "title", rec.Title, "who", rec.Who, "error", err)
		}

		log.Infow("added plex request", "title", rec.Title, "who", rec.Who)
		return c.String(http.StatusCreated, "Record Added: "+rec.Title)
	}
}
