package notion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"

	"github.com/ng-cloudflare/plexrequest/pkg/records"
)

// Property names of the plex request database. They must match the database
// schema in Notion exactly.
const (
	TitleProperty = "What should I add?"
	WhyProperty   = "Why should I add it?"
	WhoProperty   = "Who is this?"
	EmailProperty = "Email"
)

const defaultTimeout = 10 * time.Second

// Store adds records as pages of a Notion database.
type Store struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
}

var _ records.Store = (*Store)(nil)

type config struct {
	httpClient *http.Client
}

type Option func(*config)

// WithHTTPClient sets the client used to talk to the Notion API.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// New creates a store for the database identified by databaseID, using the
// given integration key.
func New(apiKey string, databaseID string, opts ...Option) *Store {
	cfg := config{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{
		client:     notionapi.NewClient(notionapi.Token(apiKey), notionapi.WithHTTPClient(cfg.httpClient)),
		databaseID: notionapi.DatabaseID(databaseID),
	}
}

// Add implements records.Store.
func (s *Store) Add(ctx context.Context, rec records.Record) error {
	_, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.databaseID,
		},
		Properties: properties(rec),
	})
	if err != nil {
		return fmt.Errorf("creating notion page: %w", err)
	}
	return nil
}

func properties(rec records.Record) notionapi.Properties {
	return notionapi.Properties{
		TitleProperty: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(rec.Title),
		},
		WhyProperty: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(rec.Why),
		},
		WhoProperty: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(rec.Who),
		},
		EmailProperty: emailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: rec.Email,
		},
	}
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
}

// emailProperty is an email property that serializes an absent address as
// null. notionapi.EmailProperty always sends a string, which the Notion API
// rejects when empty.
type emailProperty struct {
	Type  notionapi.PropertyType `json:"type"`
	Email *string                `json:"email"`
}

func (p emailProperty) GetID() string {
	return ""
}

func (p emailProperty) GetType() notionapi.PropertyType {
	return p.Type
}
