// Package config handles loading and validation of service configuration.
// Supports development (env files / env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration. It is constructed once at startup
// and treated as immutable afterwards; components receive it by injection
// rather than reading ambient process environment at call sites.
type Config struct {
	// Server settings
	Port        string `json:"port" yaml:"port"`
	Environment string `json:"environment" yaml:"environment"` // "development" or "production"
	LogLevel    string `json:"log_level" yaml:"log_level"`

	// Filesystem layout
	DataDir   string `json:"data_dir" yaml:"data_dir"`     // message store lives here
	StaticDir string `json:"static_dir" yaml:"static_dir"` // built SPA bundle

	// GCP settings (production secret loading)
	GCPProject string `json:"gcp_project" yaml:"gcp_project"`
	SecretName string `json:"secret_name" yaml:"secret_name"`

	WooCommerce WooCommerceConfig `json:"woocommerce" yaml:"woocommerce"`
	WordPress   WordPressConfig   `json:"wordpress" yaml:"wordpress"`
	SMTP        SMTPConfig        `json:"smtp" yaml:"smtp"`

	// EnvFile is the env file that was actually loaded, empty when the
	// process fell back to ambient environment variables.
	EnvFile string `json:"-" yaml:"-"`
}

// WooCommerceConfig is the consumer key/secret pair for the WooCommerce
// REST namespaces (/wc/v3, /wc-analytics, ...).
type WooCommerceConfig struct {
	ConsumerKey    string `json:"consumer_key" yaml:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret" yaml:"consumer_secret"`
}

// WordPressConfig holds the upstream API base URL and the Application
// Password credentials for the /wp/v2 namespace.
type WordPressConfig struct {
	APIURL  string `json:"api_url" yaml:"api_url"` // e.g. https://shop.example.com/wp-json
	AppUser string `json:"app_user" yaml:"app_user"`
	AppPass string `json:"app_pass" yaml:"app_pass"`
}

// SMTPConfig holds the mail transport settings and operator recipients.
type SMTPConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
	User string `json:"user" yaml:"user"`
	Pass string `json:"pass" yaml:"pass"`

	// ContactTo receives contact-form notifications. Defaults to User.
	ContactTo string `json:"contact_to" yaml:"contact_to"`
	// OrderTo receives order notifications (the print team). Defaults to
	// ContactTo when unset.
	OrderTo []string `json:"order_to" yaml:"order_to"`
}

// envFileCandidates returns the env files to probe, in priority order.
// Working-directory files win over install-directory files so a deployment
// can override a bundled .env without touching the install tree.
func envFileCandidates() []string {
	candidates := []string{".env.server", ".env"}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, ".env.server"),
			filepath.Join(dir, ".env"),
		)
	}
	return candidates
}

// Load reads configuration from CONFIG_FILE, env files, environment
// variables, or Secret Manager. Missing commerce credentials are logged as
// critical but do not fail startup: the server still serves static assets
// and non-commerce routes.
func Load(ctx context.Context, logger *slog.Logger) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON/YAML file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		cfg, err := loadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg.applyDefaults()
		cfg.warnOnMissingCredentials(logger)
		return cfg, nil
	}

	cfg := &Config{}

	// Resolve and load the first usable env file. Absence is a warning,
	// not an error - ambient process env still applies.
	for _, path := range envFileCandidates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("env file exists but failed to load",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		cfg.EnvFile = path
		logger.Info("environment loaded", slog.String("env_file", path))
		break
	}
	if cfg.EnvFile == "" {
		logger.Warn("no env file found, using ambient environment")
	}

	cfg.fromEnv()

	// Production deployments keep commerce credentials in Secret Manager.
	if cfg.Environment == "production" && cfg.GCPProject != "" && cfg.SecretName != "" {
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading secrets: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.warnOnMissingCredentials(logger)
	return cfg, nil
}

// fromEnv fills the config from environment variables. The five critical
// values are scrubbed of accidental quoting from .env authoring tools.
func (c *Config) fromEnv() {
	c.Port = envOrDefault("PORT", "3000")
	c.Environment = envOrDefault("ENVIRONMENT", "development")
	c.LogLevel = envOrDefault("LOG_LEVEL", "info")
	c.DataDir = os.Getenv("DATA_DIR")
	c.StaticDir = os.Getenv("STATIC_DIR")
	c.GCPProject = os.Getenv("GCP_PROJECT")
	c.SecretName = os.Getenv("SECRET_NAME")

	c.WooCommerce = WooCommerceConfig{
		ConsumerKey:    ScrubQuotes(os.Getenv("WC_CONSUMER_KEY")),
		ConsumerSecret: ScrubQuotes(os.Getenv("WC_CONSUMER_SECRET")),
	}
	c.WordPress = WordPressConfig{
		APIURL:  ScrubQuotes(os.Getenv("WP_API_URL")),
		AppUser: ScrubQuotes(os.Getenv("WP_APP_USER")),
		AppPass: ScrubQuotes(os.Getenv("WP_APP_PASS")),
	}

	smtpPort := 465
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			smtpPort = p
		}
	}
	c.SMTP = SMTPConfig{
		Host:      os.Getenv("SMTP_HOST"),
		Port:      smtpPort,
		User:      os.Getenv("SMTP_USER"),
		Pass:      os.Getenv("SMTP_PASS"),
		ContactTo: os.Getenv("CONTACT_EMAIL"),
	}
	if v := os.Getenv("ORDER_EMAILS"); v != "" {
		for _, addr := range strings.Split(v, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				c.SMTP.OrderTo = append(c.SMTP.OrderTo, addr)
			}
		}
	}
}

// loadFromFile reads all configuration from a JSON or YAML file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	return cfg, nil
}

// loadFromSecretManager overlays commerce credentials from GCP Secret Manager.
// The secret payload is a JSON document matching the credential fields:
//
//	{"consumer_key": "...", "consumer_secret": "...",
//	 "app_user": "...", "app_pass": "...", "api_url": "..."}
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretName)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", name, err)
	}

	var payload struct {
		ConsumerKey    string `json:"consumer_key"`
		ConsumerSecret string `json:"consumer_secret"`
		AppUser        string `json:"app_user"`
		AppPass        string `json:"app_pass"`
		APIURL         string `json:"api_url"`
	}
	if err := json.Unmarshal(result.Payload.Data, &payload); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	if payload.ConsumerKey != "" {
		c.WooCommerce.ConsumerKey = payload.ConsumerKey
	}
	if payload.ConsumerSecret != "" {
		c.WooCommerce.ConsumerSecret = payload.ConsumerSecret
	}
	if payload.AppUser != "" {
		c.WordPress.AppUser = payload.AppUser
	}
	if payload.AppPass != "" {
		c.WordPress.AppPass = payload.AppPass
	}
	if payload.APIURL != "" {
		c.WordPress.APIURL = payload.APIURL
	}
	return nil
}

// applyDefaults fills derived and defaulted fields after loading.
func (c *Config) applyDefaults() {
	c.Port = withDefault(c.Port, "3000")
	c.Environment = withDefault(c.Environment, "development")
	c.LogLevel = withDefault(c.LogLevel, "info")
	c.DataDir = withDefault(c.DataDir, "data")
	c.StaticDir = withDefault(c.StaticDir, "dist")
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 465
	}
	c.SMTP.ContactTo = withDefault(c.SMTP.ContactTo, c.SMTP.User)
	if len(c.SMTP.OrderTo) == 0 && c.SMTP.ContactTo != "" {
		c.SMTP.OrderTo = []string{c.SMTP.ContactTo}
	}
	c.WordPress.APIURL = strings.TrimSuffix(c.WordPress.APIURL, "/")
}

// warnOnMissingCredentials logs degraded-functionality conditions. Missing
// credentials disable the dependent routes only; startup continues so the
// static site and non-commerce routes stay available.
func (c *Config) warnOnMissingCredentials(logger *slog.Logger) {
	if c.WooCommerce.ConsumerKey == "" || c.WooCommerce.ConsumerSecret == "" {
		logger.Error("WooCommerce consumer key/secret missing - commerce routes will fail upstream auth")
	}
	if c.WordPress.APIURL == "" {
		logger.Error("WP_API_URL missing - proxy routes will fail")
	}
	if !c.MailConfigured() {
		logger.Warn("SMTP not configured - mail degrades to log-only")
	}
}

// MailConfigured reports whether the SMTP transport is usable.
func (c *Config) MailConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.User != "" && c.SMTP.Pass != ""
}

// EnsureDataDir creates the data directory. Creation failure is logged,
// not fatal: the message store degrades, everything else keeps working.
func (c *Config) EnsureDataDir(logger *slog.Logger) {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		logger.Error("creating data directory failed",
			slog.String("dir", c.DataDir),
			slog.String("error", err.Error()),
		)
	}
}

// MessagesPath is the location of the contact-message store file.
func (c *Config) MessagesPath() string {
	return filepath.Join(c.DataDir, "messages.json")
}

// quotePairs are the quote styles .env authoring tools wrap values in.
// Straight quotes pair with themselves, curly quotes with their closing form.
var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"}, // “ ”
	{"‘", "’"}, // ‘ ’
}

// ScrubQuotes strips exactly one matching pair of straight or curly quotes
// wrapping the value. Values copy-pasted from .env files with their quoting
// intact would otherwise fail upstream authentication. Unquoted and
// mismatched-quote values are returned unchanged.
func ScrubQuotes(v string) string {
	for _, pair := range quotePairs {
		if len(v) >= len(pair[0])+len(pair[1]) &&
			strings.HasPrefix(v, pair[0]) && strings.HasSuffix(v, pair[1]) {
			return v[len(pair[0]) : len(v)-len(pair[1])]
		}
	}
	return v
}

// MaskValue obscures a credential for diagnostic output, keeping just
// enough of the ends to confirm which value is loaded.
func MaskValue(v string) string {
	if v == "" {
		return "(empty)"
	}
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", len(v)-8) + v[len(v)-4:]
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
