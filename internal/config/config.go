package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-ack/internal/logger"
)

// Config holds the controller connection settings for alarm-ack.
type Config struct {
	// ControllerURL is the base URL of the controller REST API.
	ControllerURL string `yaml:"controller_url"`
	// Timeout bounds every individual API call. Zero means the default.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// API holds the versioned path prefix for each endpoint.
	API APIVersions `yaml:"api"`
}

// APIVersions lists the API version segment used per controller endpoint,
// e.g. "v2.0" in /v2.0/api/profile.
type APIVersions struct {
	Login       string `yaml:"login"`
	Logout      string `yaml:"logout"`
	Profile     string `yaml:"profile"`
	Tenants     string `yaml:"tenants"`
	EventsQuery string `yaml:"events_query"`
	Events      string `yaml:"events"`
}

const (
	// DefaultConfigFilename is the settings file looked up when no path is given.
	DefaultConfigFilename = "alarm-ack-settings.yaml"

	// DefaultControllerURL is the public controller endpoint.
	DefaultControllerURL = "https://api.elcapitan.cloudgenix.com"

	// DefaultTimeout is the default duration for a single API call.
	DefaultTimeout = 60 * time.Second
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errControllerURLRequired is returned when the controller URL is missing.
	errControllerURLRequired = errors.New("controller URL must be provided")
	// errUnsupportedScheme is returned for controller URLs that are not http(s).
	errUnsupportedScheme = errors.New("controller URL scheme must be http or https")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// DefaultAPIVersions returns the endpoint versions the controller serves today.
func DefaultAPIVersions() APIVersions {
	return APIVersions{
		Login:       "v2.0",
		Logout:      "v2.0",
		Profile:     "v2.0",
		Tenants:     "v2.0",
		EventsQuery: "v3.0",
		Events:      "v2.3",
	}
}

// Default returns settings that work against the public controller.
func Default() *Config {
	return &Config{
		ControllerURL: DefaultControllerURL,
		Timeout:       DefaultTimeout,
		LogLevel:      "info",
		API:           DefaultAPIVersions(),
	}
}

// Load reads settings from path and validates them.
// With an empty path the default file is tried and built-in defaults are
// used when it does not exist. An explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and fills defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ControllerURL == "" {
		return errControllerURLRequired
	}

	parsed, err := url.ParseRequestURI(cfg.ControllerURL)
	if err != nil {
		return fmt.Errorf("invalid controller URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %q", errUnsupportedScheme, parsed.Scheme)
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	// Set default timeout if not specified.
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cfg.API = cfg.API.withDefaults()

	return nil
}

// withDefaults replaces empty versions with the built-in ones.
func (v APIVersions) withDefaults() APIVersions {
	defaults := DefaultAPIVersions()

	fill := func(value *string, fallback string) {
		if *value == "" {
			*value = fallback
		}
	}

	fill(&v.Login, defaults.Login)
	fill(&v.Logout, defaults.Logout)
	fill(&v.Profile, defaults.Profile)
	fill(&v.Tenants, defaults.Tenants)
	fill(&v.EventsQuery, defaults.EventsQuery)
	fill(&v.Events, defaults.Events)

	return v
}
