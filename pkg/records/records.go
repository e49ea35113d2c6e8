package records

import "context"

// Record is a single plex request as it is stored in the external record
// store. A nil Email is stored as an explicit null.
type Record struct {
	Title string
	Why   string
	Who   string
	Email *string
}

// Store creates one record per accepted submission. This service never
// reads, updates or deletes records once they are created.
type Store interface {
	Add(ctx context.Context, rec Record) error
}
