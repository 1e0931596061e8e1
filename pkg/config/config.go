package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// SECUREDOCS_TARGET_BASE_URL or SECUREDOCS_CREDENTIALS_ADMIN_PASSWORD.
const EnvPrefix = "SECUREDOCS"

// Browser engines
const (
	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"
)

// Config holds the complete suite configuration.
type Config struct {
	Target      TargetConfig      `mapstructure:"target" yaml:"target" json:"target"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials" json:"-"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser" json:"browser"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Runner      RunnerConfig      `mapstructure:"runner" yaml:"runner" json:"runner"`
	Report      ReportConfig      `mapstructure:"report" yaml:"report" json:"report"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// TargetConfig locates the application under test
type TargetConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
}

// CredentialsConfig holds the built-in account for each account class
type CredentialsConfig struct {
	User  Credential `mapstructure:"user" yaml:"user"`
	Admin Credential `mapstructure:"admin" yaml:"admin"`
}

// Credential is an identifier/secret pair
type Credential struct {
	Email    string `mapstructure:"email" yaml:"email"`
	Password string `mapstructure:"password" yaml:"password"`
}

// BrowserConfig controls how browser handles are launched
type BrowserConfig struct {
	Engine         string        `mapstructure:"engine" yaml:"engine" json:"engine"`
	Headless       bool          `mapstructure:"headless" yaml:"headless" json:"headless"`
	ViewportWidth  int           `mapstructure:"viewport_width" yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height" yaml:"viewport_height" json:"viewport_height"`
	Locale         string        `mapstructure:"locale" yaml:"locale" json:"locale"`
	SlowMo         time.Duration `mapstructure:"slow_mo" yaml:"slow_mo" json:"slow_mo"`
	ActionTimeout  time.Duration `mapstructure:"action_timeout" yaml:"action_timeout" json:"action_timeout"`
}

// TimeoutsConfig bounds every wait the suite performs
type TimeoutsConfig struct {
	// Element bounds lookups of required elements such as login form fields
	Element time.Duration `mapstructure:"element" yaml:"element" json:"element"`

	// Landing bounds the wait for the post-login landing page
	Landing time.Duration `mapstructure:"landing" yaml:"landing" json:"landing"`

	// Navigation bounds the wait for a dashboard after direct navigation
	Navigation time.Duration `mapstructure:"navigation" yaml:"navigation" json:"navigation"`

	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" json:"poll_interval"`

	// Case bounds a single test case, including its login
	Case time.Duration `mapstructure:"case" yaml:"case" json:"case"`
}

// RunnerConfig controls case execution
type RunnerConfig struct {
	Retries        int  `mapstructure:"retries" yaml:"retries" json:"retries"`
	Workers        int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ResetOnFailure bool `mapstructure:"reset_on_failure" yaml:"reset_on_failure" json:"reset_on_failure"`
}

// ReportConfig controls run artifacts
type ReportConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Metrics bool   `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// LoggingConfig controls the run log
type LoggingConfig struct {
	Level   string `mapstructure:"level" yaml:"level" json:"level"`
	Dir     string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Console bool   `mapstructure:"console" yaml:"console" json:"console"`
}

// SetDefaults registers every configuration key with its default value.
// Keys without a default are invisible to environment overrides.
func SetDefaults(v *viper.Viper) {
	// Target
	v.SetDefault("target.base_url", "https://securedocs.example.com")

	// Credentials
	v.SetDefault("credentials.user.email", "user@securedocs.test")
	v.SetDefault("credentials.user.password", "UserPass123!")
	v.SetDefault("credentials.admin.email", "admin@securedocs.test")
	v.SetDefault("credentials.admin.password", "AdminPass123!")

	// Browser
	v.SetDefault("browser.engine", EnginePlaywright)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.locale", "en-US")
	v.SetDefault("browser.slow_mo", "0s")
	v.SetDefault("browser.action_timeout", "30s")

	// Timeouts
	v.SetDefault("timeouts.element", "10s")
	v.SetDefault("timeouts.landing", "20s")
	v.SetDefault("timeouts.navigation", "10s")
	v.SetDefault("timeouts.poll_interval", "250ms")
	v.SetDefault("timeouts.case", "2m")

	// Runner
	v.SetDefault("runner.retries", 0)
	v.SetDefault("runner.workers", 1)
	v.SetDefault("runner.reset_on_failure", true)

	// Report
	v.SetDefault("report.dir", "e2e-report")
	v.SetDefault("report.metrics", true)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "")
	v.SetDefault("logging.console", false)
}

// NewViper returns a viper instance with defaults and environment overrides bound.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns the built-in configuration, ignoring the environment.
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; this only fails if SetDefaults is broken.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load reads the optional YAML file at path, applies environment overrides and
// validates the result. An empty path loads defaults plus environment.
func Load(path string) (*Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the suite cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil {
		return fmt.Errorf("target.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target.base_url must be an http or https URL, got %q", c.Target.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("target.base_url must include a host")
	}

	if c.Credentials.User.Email == "" || c.Credentials.User.Password == "" {
		return fmt.Errorf("credentials.user requires email and password")
	}
	if c.Credentials.Admin.Email == "" || c.Credentials.Admin.Password == "" {
		return fmt.Errorf("credentials.admin requires email and password")
	}

	switch c.Browser.Engine {
	case EnginePlaywright, EngineChromedp:
	default:
		return fmt.Errorf("invalid browser.engine: %s (must be '%s' or '%s')", c.Browser.Engine, EnginePlaywright, EngineChromedp)
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d", c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Browser.SlowMo < 0 {
		return fmt.Errorf("browser.slow_mo cannot be negative")
	}
	if c.Browser.ActionTimeout <= 0 {
		return fmt.Errorf("browser.action_timeout must be positive")
	}

	timeouts := []struct {
		key string
		val time.Duration
	}{
		{"timeouts.element", c.Timeouts.Element},
		{"timeouts.landing", c.Timeouts.Landing},
		{"timeouts.navigation", c.Timeouts.Navigation},
		{"timeouts.poll_interval", c.Timeouts.PollInterval},
		{"timeouts.case", c.Timeouts.Case},
	}
	for _, t := range timeouts {
		if t.val <= 0 {
			return fmt.Errorf("%s must be positive", t.key)
		}
	}

	if c.Runner.Retries < 0 {
		return fmt.Errorf("runner.retries cannot be negative")
	}
	if c.Runner.Workers < 1 {
		return fmt.Errorf("runner.workers must be at least 1")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}

	return nil
}
