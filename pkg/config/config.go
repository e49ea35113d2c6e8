package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/ng-cloudflare/plexrequest/pkg/passphrase"
)

const DefaultServicePort = 8080

// Deployment modes.
const (
	ModeLocal      Mode = "local"
	ModeProduction Mode = "production"
)

// Record store backends.
const (
	BackendNotion   = "notion"
	BackendDynamoDB = "dynamodb"
)

// Notifier kinds.
const (
	NotifierHTTP = "http"
	NotifierSES  = "ses"
)

const (
	DefaultLocalOrigin      = "http://localhost:3000"
	DefaultProductionOrigin = "https://plex.ng.dev"

	DefaultLocalNotifyURL      = "http://localhost:8787/"
	DefaultProductionNotifyURL = "https://send-email.ng-cloudflare.workers.dev/"
)

// Mode is the deployment environment. It decides the allowed CORS origin and
// the default notification endpoint.
type Mode string

// ParseMode parses a deployment mode. "development" is an alias of local and
// an empty string means production.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "development", "dev":
		return ModeLocal, nil
	case "", "production", "prod":
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("invalid deployment mode: %q", s)
	}
}

// ServerConfig is only used when running the HTTP server directly.
type ServerConfig struct {
	Port int `toml:"port" json:"port" mapstructure:"port" flag:"port" validate:"min=1,max=65535"`
}

type PassphraseConfig struct {
	// The correct answer, or a delimited list of answers for the oneof policy.
	Answer    string `toml:"answer" json:"answer" mapstructure:"answer"`
	Policy    string `toml:"policy" json:"policy" mapstructure:"policy" flag:"passphrase-policy"`
	Delimiter string `toml:"delimiter" json:"delimiter" mapstructure:"delimiter"`
}

type RecordsConfig struct {
	Backend          string `toml:"backend" json:"backend" mapstructure:"backend" flag:"records-backend" validate:"oneof=notion dynamodb"`
	NotionKey        string `toml:"notion_key" json:"notion_key" mapstructure:"notion_key"`
	NotionDatabaseID string `toml:"notion_database_id" json:"notion_database_id" mapstructure:"notion_database_id"`
	TableName        string `toml:"table_name" json:"table_name" mapstructure:"table_name"`
}

type NotifyConfig struct {
	Kind      string `toml:"kind" json:"kind" mapstructure:"kind" flag:"notifier" validate:"oneof=http ses"`
	URL       string `toml:"url" json:"url" mapstructure:"url" flag:"notify-url" validate:"omitempty,url"`
	ToEmail   string `toml:"to_email" json:"to_email" mapstructure:"to_email" validate:"required,email"`
	FromEmail string `toml:"from_email" json:"from_email" mapstructure:"from_email" validate:"omitempty,email"`
}

type CORSConfig struct {
	LocalOrigin      string `toml:"local_origin" json:"local_origin" mapstructure:"local_origin"`
	ProductionOrigin string `toml:"production_origin" json:"production_origin" mapstructure:"production_origin"`
}

type TelemetryConfig struct {
	SentryDSN         string `toml:"sentry_dsn" json:"sentry_dsn" mapstructure:"sentry_dsn"`
	SentryEnvironment string `toml:"sentry_environment" json:"sentry_environment" mapstructure:"sentry_environment"`
}

// Config is the full configuration, resolved once at startup.
type Config struct {
	Mode       string           `toml:"mode" json:"mode" mapstructure:"mode" flag:"mode"`
	Server     ServerConfig     `toml:"server" json:"server" mapstructure:"server"`
	Passphrase PassphraseConfig `toml:"passphrase" json:"passphrase" mapstructure:"passphrase"`
	Records    RecordsConfig    `toml:"records" json:"records" mapstructure:"records"`
	Notify     NotifyConfig     `toml:"notify" json:"notify" mapstructure:"notify"`
	CORS       CORSConfig       `toml:"cors" json:"cors" mapstructure:"cors"`
	Telemetry  TelemetryConfig  `toml:"telemetry" json:"telemetry" mapstructure:"telemetry"`
}

// LoadConfig loads configuration for the CLI.
// flags > environment variables > config file > defaults
// The result is not validated, secrets may still need resolving.
func LoadConfig(cCtx *cli.Context) (*Config, error) {
	cfg, err := Load(cCtx.String("config"))
	if err != nil {
		return nil, err
	}
	fromCLI(cCtx, cfg)
	return cfg, nil
}

// Load reads configuration from the environment, on top of the file at path
// when one is given, on top of defaults.
func Load(path string) (*Config, error) {
	v, err := setupViperWithDefaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		if stat, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file path does not exist: %s", path)
			}
			return nil, fmt.Errorf("failed to read config file at path %s: %w", path, err)
		} else if stat.IsDir() {
			return nil, fmt.Errorf("config file path points to a directory: %s", path)
		}

		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate performs validation on the configuration values and returns every
// problem found.
func (cfg *Config) Validate() error {
	var errs error

	if err := validateStruct(cfg); err != nil {
		errs = multierror.Append(errs, err)
	}

	if _, err := ParseMode(cfg.Mode); err != nil {
		errs = multierror.Append(errs, err)
	}

	if cfg.Passphrase.Answer == "" {
		errs = multierror.Append(errs, fmt.Errorf("passphrase answer is required"))
	} else if _, err := cfg.Policy(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("invalid passphrase policy: %w", err))
	}

	switch cfg.Records.Backend {
	case BackendNotion:
		if cfg.Records.NotionKey == "" {
			errs = multierror.Append(errs, fmt.Errorf("notion integration key is required for the notion backend"))
		}
		if cfg.Records.NotionDatabaseID == "" {
			errs = multierror.Append(errs, fmt.Errorf("notion database ID is required for the notion backend"))
		}
	case BackendDynamoDB:
		if cfg.Records.TableName == "" {
			errs = multierror.Append(errs, fmt.Errorf("table name is required for the dynamodb backend"))
		}
	}

	switch cfg.Notify.Kind {
	case NotifierHTTP:
		if u, err := url.Parse(cfg.NotifyURL()); err != nil || !u.IsAbs() {
			errs = multierror.Append(errs, fmt.Errorf("invalid notification URL: %q", cfg.NotifyURL()))
		}
	case NotifierSES:
		if cfg.Notify.FromEmail == "" {
			errs = multierror.Append(errs, fmt.Errorf("from email is required for the ses notifier"))
		}
	}

	return errs
}

// DeploymentMode returns the parsed mode, production when it does not parse.
func (cfg *Config) DeploymentMode() Mode {
	m, err := ParseMode(cfg.Mode)
	if err != nil {
		return ModeProduction
	}
	return m
}

// CORSOrigin is the value of the Access-Control-Allow-Origin header. Empty
// means no header is sent.
func (cfg *Config) CORSOrigin() string {
	if cfg.DeploymentMode() == ModeLocal {
		return cfg.CORS.LocalOrigin
	}
	return cfg.CORS.ProductionOrigin
}

// NotifyURL is the endpoint of the email sending service.
func (cfg *Config) NotifyURL() string {
	if cfg.Notify.URL != "" {
		return cfg.Notify.URL
	}
	if cfg.DeploymentMode() == ModeLocal {
		return DefaultLocalNotifyURL
	}
	return DefaultProductionNotifyURL
}

// Policy builds the configured passphrase policy.
func (cfg *Config) Policy() (passphrase.Policy, error) {
	kind, err := passphrase.ParseKind(cfg.Passphrase.Policy)
	if err != nil {
		return passphrase.Policy{}, err
	}
	return passphrase.New(kind, cfg.Passphrase.Answer, cfg.Passphrase.Delimiter)
}

func newDefault() *Config {
	return &Config{
		Mode:   string(ModeProduction),
		Server: ServerConfig{Port: DefaultServicePort},
		Passphrase: PassphraseConfig{
			Policy:    passphrase.Exact.String(),
			Delimiter: passphrase.DefaultDelimiter,
		},
		Records: RecordsConfig{Backend: BackendNotion},
		Notify:  NotifyConfig{Kind: NotifierHTTP},
		CORS: CORSConfig{
			LocalOrigin:      DefaultLocalOrigin,
			ProductionOrigin: DefaultProductionOrigin,
		},
	}
}

// fromCLI loads configuration values from CLI flags
func fromCLI(ctx *cli.Context, cfg *Config) {
	if ctx.IsSet("mode") {
		cfg.Mode = ctx.String("mode")
	}
	if ctx.IsSet("port") {
		cfg.Server.Port = ctx.Int("port")
	}
	if ctx.IsSet("passphrase-policy") {
		cfg.Passphrase.Policy = ctx.String("passphrase-policy")
	}
	if ctx.IsSet("records-backend") {
		cfg.Records.Backend = ctx.String("records-backend")
	}
	if ctx.IsSet("notifier") {
		cfg.Notify.Kind = ctx.String("notifier")
	}
	if ctx.IsSet("notify-url") {
		cfg.Notify.URL = ctx.String("notify-url")
	}
}

// envMappings binds config keys to environment variables. Later names are
// fallbacks for earlier ones.
var envMappings = map[string][]string{
	"mode":        {"ENVIRONMENT"},
	"server.port": {"PORT"},

	"passphrase.answer":    {"PLEX_PASSPHRASE_ANSWER"},
	"passphrase.policy":    {"PLEX_PASSPHRASE_POLICY"},
	"passphrase.delimiter": {"PLEX_PASSPHRASE_DELIMITER"},

	"records.backend":            {"RECORDS_BACKEND"},
	"records.notion_key":         {"NOTION_INTEGRATION_KEY"},
	"records.notion_database_id": {"NOTION_PLEX_REQUEST_DATABASE_ID"},
	"records.table_name":         {"RECORDS_TABLE_NAME"},

	"notify.kind":       {"NOTIFY_KIND"},
	"notify.url":        {"NOTIFY_URL"},
	"notify.to_email":   {"NOTIFY_TO_EMAIL", "SENDGRID_TO_EMAIL"},
	"notify.from_email": {"NOTIFY_FROM_EMAIL", "SENDGRID_FROM_EMAIL"},

	"cors.local_origin":      {"CORS_LOCAL_ORIGIN"},
	"cors.production_origin": {"CORS_PRODUCTION_ORIGIN"},

	"telemetry.sentry_dsn":         {"SENTRY_DSN"},
	"telemetry.sentry_environment": {"SENTRY_ENVIRONMENT"},
}

// setupViperWithDefaults creates a new Viper instance with default values and environment bindings
func setupViperWithDefaults() (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix("PLEXREQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envVars := range envMappings {
		if err := v.BindEnv(append([]string{key}, envVars...)...); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", key, err)
		}
	}

	defaultCfg := newDefault()
	v.SetDefault("mode", defaultCfg.Mode)
	v.SetDefault("server.port", defaultCfg.Server.Port)
	v.SetDefault("passphrase.policy", defaultCfg.Passphrase.Policy)
	v.SetDefault("passphrase.delimiter", defaultCfg.Passphrase.Delimiter)
	v.SetDefault("records.backend", defaultCfg.Records.Backend)
	v.SetDefault("notify.kind", defaultCfg.Notify.Kind)
	v.SetDefault("cors.local_origin", defaultCfg.CORS.LocalOrigin)
	v.SetDefault("cors.production_origin", defaultCfg.CORS.ProductionOrigin)

	return v, nil
}
