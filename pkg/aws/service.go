package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ng-cloudflare/plexrequest/pkg/config"
	"github.com/ng-cloudflare/plexrequest/pkg/notify"
	"github.com/ng-cloudflare/plexrequest/pkg/records"
	"github.com/ng-cloudflare/plexrequest/pkg/records/notion"
	"github.com/ng-cloudflare/plexrequest/pkg/server"
)

var log = logging.Logger("aws")

type Config struct {
	Config        aws.Config
	DynamoOptions []func(*dynamodb.Options)
	SESOptions    []func(*sesv2.Options)
	App           *config.Config
}

// NewConfig loads the default AWS configuration, resolves any secrets held in
// SSM into app and validates the result.
func NewConfig(ctx context.Context, app *config.Config) (Config, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return Config{}, fmt.Errorf("loading aws default config: %w", err)
	}

	params := SecretParamsFromEnv()
	if params != (SecretParams{}) {
		if err := ResolveSecrets(ctx, ssm.NewFromConfig(awsConfig), params, app); err != nil {
			return Config{}, err
		}
	}

	if err := app.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return Config{Config: awsConfig, App: app}, nil
}

// FromEnv constructs the AWS Configuration from the environment
func FromEnv(ctx context.Context) Config {
	app, err := config.Load("")
	if err != nil {
		panic(fmt.Errorf("loading config: %w", err))
	}
	cfg, err := NewConfig(ctx, app)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Service holds the collaborators of a configured plex request service.
type Service struct {
	cfg      *config.Config
	records  records.Store
	notifier notify.Notifier
}

func (s *Service) Records() records.Store {
	return s.records
}

func (s *Service) Notifier() notify.Notifier {
	return s.notifier
}

// Server creates the HTTP server for the service.
func (s *Service) Server() (*server.Server, error) {
	policy, err := s.cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("building passphrase policy: %w", err)
	}
	return server.NewServer(
		server.WithPolicy(policy),
		server.WithRecordStore(s.records),
		server.WithNotifier(s.notifier),
		server.WithRecipient(s.cfg.Notify.ToEmail),
		server.WithAllowedOrigin(s.cfg.CORSOrigin()),
	)
}

// Construct wires the record store and notifier selected by the app config.
func Construct(cfg Config) (*Service, error) {
	app := cfg.App
	if app == nil {
		return nil, fmt.Errorf("missing app config")
	}

	var store records.Store
	switch app.Records.Backend {
	case config.BackendNotion:
		store = notion.New(app.Records.NotionKey, app.Records.NotionDatabaseID)
	case config.BackendDynamoDB:
		store = NewDynamoRecordStore(cfg.Config, app.Records.TableName, cfg.DynamoOptions...)
	default:
		return nil, fmt.Errorf("unknown records backend: %q", app.Records.Backend)
	}

	var notifier notify.Notifier
	switch app.Notify.Kind {
	case config.NotifierHTTP:
		notifier = notify.NewHTTPNotifier(nil, app.NotifyURL())
	case config.NotifierSES:
		notifier = NewSESNotifier(cfg.Config, app.Notify.FromEmail, cfg.SESOptions...)
	default:
		return nil, fmt.Errorf("unknown notifier: %q", app.Notify.Kind)
	}

	log.Infow("constructed service",
		"mode", app.DeploymentMode(),
		"records", app.Records.Backend,
		"notifier", app.Notify.Kind,
	)
	return &Service{cfg: app, records: store, notifier: notifier}, nil
}
