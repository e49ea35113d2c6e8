package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ng-cloudflare/plexrequest/pkg/records"
)

// ErrMissingFields means one or more of the required submission fields was
// absent or empty.
var ErrMissingFields = errors.New("missing required fields")

// ErrMalformedBody means the request body could not be decoded as a
// submission.
var ErrMalformedBody = errors.New("malformed request body")

// Submission is the JSON body of a new plex request.
type Submission struct {
	Title      string `json:"title" validate:"required"`
	Why        string `json:"why" validate:"required"`
	Who        string `json:"who" validate:"required"`
	Passphrase string `json:"passphrase" validate:"required"`
	Email      string `json:"email,omitempty"`
}

// validate reports fields by their JSON name.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.Split(f.Tag.Get("json"), ",")[0]
	})
	return v
}()

// Decode reads a submission from r.
func Decode(r io.Reader) (Submission, error) {
	var s Submission
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return s, nil
}

// Validate checks that title, why, who and passphrase are all present.
func (s Submission) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating submission: %w", err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
}

// Record converts the submission into the record that gets stored. The
// passphrase is dropped.
func (s Submission) Record() records.Record {
	rec := records.Record{
		Title: s.Title,
		Why:   s.Why,
		Who:   s.Who,
	}
	if s.Email != "" {
		email := s.Email
		rec.Email = &email
	}
	return rec
}
