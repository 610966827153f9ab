package config

import (
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	configutil "github.com/NYCU-SDC/summer/pkg/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const DefaultSecret = "default-secret"

var (
	ErrDatabaseURLRequired = errors.New("database_url is required")
	ErrHashidsSaltRequired = errors.New("hashids_salt is required")
)

// OidcConnection configures one enterprise SSO connection (authorize and
// token endpoints plus client credentials).
type OidcConnection struct {
	ClientID     string `yaml:"client_id"     envconfig:"OIDC_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" envconfig:"OIDC_CLIENT_SECRET"`
	AuthURL      string `yaml:"auth_url"      envconfig:"OIDC_AUTH_URL"`
	TokenURL     string `yaml:"token_url"     envconfig:"OIDC_TOKEN_URL"`
}

// PlanPricing maps billing plan names (monthly, yearly) to provider price ids.
type PlanPricing map[string]string

// Pricing holds the per-environment billing catalog.
type Pricing struct {
	ProductID string      `yaml:"product_id"`
	Plans     PlanPricing `yaml:"plans"`
}

type Config struct {
	Debug            bool               `yaml:"debug"              envconfig:"DEBUG"`
	Environment      string             `yaml:"environment"        envconfig:"ENVIRONMENT"`
	Host             string             `yaml:"host"               envconfig:"HOST"`
	Port             string             `yaml:"port"               envconfig:"PORT"`
	BaseURL          string             `yaml:"base_url"           envconfig:"BASE_URL"`
	FrontURL         string             `yaml:"front_url"          envconfig:"FRONT_URL"`
	Secret           string             `yaml:"secret"             envconfig:"SECRET"`
	DatabaseURL      string             `yaml:"database_url"       envconfig:"DATABASE_URL"`
	MigrationSource  string             `yaml:"migration_source"   envconfig:"MIGRATION_SOURCE"`
	OtelCollectorUrl string             `yaml:"otel_collector_url" envconfig:"OTEL_COLLECTOR_URL"`
	SelfHosted       bool               `yaml:"self_hosted"        envconfig:"SELF_HOSTED"`
	HashidsSalt      string             `yaml:"hashids_salt"       envconfig:"HASHIDS_SALT"`
	AllowOrigins     []string           `yaml:"allow_origins"      envconfig:"ALLOW_ORIGINS"`
	Oidc             OidcConnection     `yaml:"oidc"`
	Pricing          map[string]Pricing `yaml:"pricing"`

	BillingCheckoutURL string `yaml:"billing_checkout_url" envconfig:"BILLING_CHECKOUT_URL"`
	BillingPortalURL   string `yaml:"billing_portal_url"   envconfig:"BILLING_PORTAL_URL"`
	GeminiAPIKey       string `yaml:"gemini_api_key"       envconfig:"GEMINI_API_KEY"`

	AccessTokenExpiration  time.Duration `yaml:"access_token_expiration"  envconfig:"ACCESS_TOKEN_EXPIRATION"`
	RefreshTokenExpiration time.Duration `yaml:"refresh_token_expiration" envconfig:"REFRESH_TOKEN_EXPIRATION"`
}

type LogBuffer struct {
	buffer []logEntry
}

type logEntry struct {
	msg  string
	err  error
	meta map[string]string
}

func NewConfigLogger() *LogBuffer {
	return &LogBuffer{}
}

func (cl *LogBuffer) Warn(msg string, err error, meta map[string]string) {
	cl.buffer = append(cl.buffer, logEntry{msg: msg, err: err, meta: meta})
}

func (cl *LogBuffer) FlushToZap(logger *zap.Logger) {
	for _, e := range cl.buffer {
		var fields []zap.Field
		if e.err != nil {
			fields = append(fields, zap.Error(e.err))
		}
		for k, v := range e.meta {
			fields = append(fields, zap.String(k, v))
		}
		logger.Warn(e.msg, fields...)
	}
	cl.buffer = nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}
	if c.HashidsSalt == "" {
		return ErrHashidsSaltRequired
	}

	return nil
}

func Load() (Config, *LogBuffer) {
	logger := NewConfigLogger()

	config := &Config{
		Debug:                  false,
		Environment:            "production",
		Host:                   "localhost",
		Port:                   "8080",
		Secret:                 DefaultSecret,
		DatabaseURL:            "",
		MigrationSource:        "file://internal/database/migrations",
		OtelCollectorUrl:       "",
		SelfHosted:             false,
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 30 * 24 * time.Hour,
	}

	var err error

	config, err = FromFile("config.yaml", config, logger)
	if err != nil {
		logger.Warn("Failed to load config from file", err, map[string]string{"path": "config.yaml"})
	}

	config, err = FromEnv(config, logger)
	if err != nil {
		logger.Warn("Failed to load config from env", err, map[string]string{"path": ".env"})
	}

	config, err = FromFlags(config)
	if err != nil {
		logger.Warn("Failed to load config from flags", err, map[string]string{"path": "flags"})
	}

	return *config, logger
}

func FromFile(filePath string, config *Config, logger *LogBuffer) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return config, err
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			logger.Warn("Failed to close config file", err, map[string]string{"path": filePath})
		}
	}(file)

	fileConfig := Config{}
	if err := yaml.NewDecoder(file).Decode(&fileConfig); err != nil {
		return config, err
	}

	return configutil.Merge[Config](config, &fileConfig)
}

func FromEnv(config *Config, logger *LogBuffer) (*Config, error) {
	if err := godotenv.Overload(); err != nil {
		if os.IsNotExist(err) {
			logger.Warn("No .env file found", err, map[string]string{"path": ".env"})
		} else {
			return nil, err
		}
	}

	envConfig := &Config{
		Debug:            os.Getenv("DEBUG") == "true",
		Environment:      os.Getenv("ENVIRONMENT"),
		Host:             os.Getenv("HOST"),
		Port:             os.Getenv("PORT"),
		BaseURL:          os.Getenv("BASE_URL"),
		FrontURL:         os.Getenv("FRONT_URL"),
		Secret:           os.Getenv("SECRET"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MigrationSource:  os.Getenv("MIGRATION_SOURCE"),
		OtelCollectorUrl: os.Getenv("OTEL_COLLECTOR_URL"),
		SelfHosted:       os.Getenv("SELF_HOSTED") == "true",
		HashidsSalt:      os.Getenv("HASHIDS_SALT"),
		AllowOrigins:     splitOrigins(os.Getenv("ALLOW_ORIGINS")),
		Oidc: OidcConnection{
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			AuthURL:      os.Getenv("OIDC_AUTH_URL"),
			TokenURL:     os.Getenv("OIDC_TOKEN_URL"),
		},
		BillingCheckoutURL: os.Getenv("BILLING_CHECKOUT_URL"),
		BillingPortalURL:   os.Getenv("BILLING_PORTAL_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
	}

	return configutil.Merge[Config](config, envConfig)
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}

	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func FromFlags(config *Config) (*Config, error) {
	flagConfig := &Config{}

	flag.BoolVar(&flagConfig.Debug, "debug", false, "debug mode")
	flag.StringVar(&flagConfig.Environment, "environment", "", "deployment environment")
	flag.StringVar(&flagConfig.Host, "host", "", "host")
	flag.StringVar(&flagConfig.Port, "port", "", "port")
	flag.StringVar(&flagConfig.BaseURL, "base_url", "", "base url")
	flag.StringVar(&flagConfig.FrontURL, "front_url", "", "front url")
	flag.StringVar(&flagConfig.Secret, "secret", "", "secret")
	flag.StringVar(&flagConfig.DatabaseURL, "database_url", "", "database url")
	flag.StringVar(&flagConfig.MigrationSource, "migration_source", "", "migration source")
	flag.StringVar(&flagConfig.OtelCollectorUrl, "otel_collector_url", "", "OpenTelemetry collector URL")
	flag.BoolVar(&flagConfig.SelfHosted, "self_hosted", false, "self hosted deployment")
	flag.StringVar(&flagConfig.HashidsSalt, "hashids_salt", "", "salt for legacy submission hashes")

	flag.Parse()

	return configutil.Merge[Config](config, flagConfig)
}
