package testutil

import (
	"github.com/google/uuid"

	"github.com/ng-cloudflare/plexrequest/pkg/records"
)

func RandomString() string {
	return uuid.NewString()
}

// RandomRecord creates a record with random contents and no email.
func RandomRecord() records.Record {
	return records.Record{
		Title: "title-" + RandomString(),
		Why:   "why-" + RandomString(),
		Who:   "who-" + RandomString(),
	}
}

// RandomRecordWithEmail creates a record with random contents and an email.
func RandomRecordWithEmail() records.Record {
	rec := RandomRecord()
	email := RandomString() + "@example.com"
	rec.Email = &email
	return rec
}
