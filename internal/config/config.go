// ABOUTME: Configuration loading and parsing for jbossbot
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete jbossbot configuration
type Config struct {
	IRC      IRCConfig      `yaml:"irc"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Routes   RoutesConfig   `yaml:"routes"`
	Trackers TrackersConfig `yaml:"trackers"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// Admins lists hostmask patterns allowed to run ! commands
	// (e.g. "*!*@mike.users.example.net").
	Admins []string `yaml:"admins"`
}

// IRCConfig holds the IRC connection settings
type IRCConfig struct {
	Server       string   `yaml:"server"`
	Port         int      `yaml:"port"`
	TLS          bool     `yaml:"tls"`
	Nick         string   `yaml:"nick"`
	Alternate    string   `yaml:"alternate"`
	Username     string   `yaml:"username"`
	Realname     string   `yaml:"realname"`
	NickservPass string   `yaml:"nickserv_pass"`
	Channels     []string `yaml:"channels"`
}

// HTTPConfig holds the webhook HTTP server configuration
type HTTPConfig struct {
	Addr string `yaml:"addr"`

	// GithubSecret validates X-Hub-Signature-256 on GitHub deliveries.
	// Empty disables signature checking.
	GithubSecret string `yaml:"github_secret"`
}

// DatabaseConfig holds the route store configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RoutesConfig controls how often the broadcast route snapshot is reloaded
// from the store.
type RoutesConfig struct {
	RefreshInterval    time.Duration `yaml:"-"`
	RefreshIntervalRaw string        `yaml:"refresh_interval"`
}

// TrackersConfig holds configuration for all tracker integrations
type TrackersConfig struct {
	Bugzilla []BugzillaConfig `yaml:"bugzilla"`
	Jira     []JiraConfig     `yaml:"jira"`
	YouTrack []YouTrackConfig `yaml:"youtrack"`
	GitHub   GitHubConfig     `yaml:"github"`
	TeamCity TeamCityConfig   `yaml:"teamcity"`
}

// TrackerOptions holds the per-tracker scan settings shared by every
// integration. The dedupe window is configurable per tracker because the
// integrations have historically run different windows (JIRA at 15s, the
// rest at 10s).
type TrackerOptions struct {
	DedupeWindow    time.Duration `yaml:"-"`
	DedupeWindowRaw string        `yaml:"dedupe_window"`

	// MaxKeys caps how many matches are processed per inbound message.
	MaxKeys int `yaml:"max_keys"`
}

// BugzillaConfig holds one Bugzilla server integration
type BugzillaConfig struct {
	Name           string `yaml:"name"`
	BaseURL        string `yaml:"base_url"`
	TrackerOptions `yaml:",inline"`
}

// JiraConfig holds one JIRA server integration
type JiraConfig struct {
	Name           string   `yaml:"name"`
	BaseURL        string   `yaml:"base_url"`
	Projects       []string `yaml:"projects"`
	TrackerOptions `yaml:",inline"`
}

// YouTrackConfig holds one YouTrack server integration
type YouTrackConfig struct {
	Name           string   `yaml:"name"`
	BaseURL        string   `yaml:"base_url"`
	Projects       []string `yaml:"projects"`
	TrackerOptions `yaml:",inline"`
}

// GitHubConfig holds the GitHub integration
type GitHubConfig struct {
	Enabled        bool   `yaml:"enabled"`
	APIBase        string `yaml:"api_base"`
	TrackerOptions `yaml:",inline"`
}

// TeamCityConfig holds the TeamCity integration (webhook-only)
type TeamCityConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.IRC.Server == "" {
		return fmt.Errorf("irc.server is required")
	}
	if c.IRC.Nick == "" {
		return fmt.Errorf("irc.nick is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	for i, bz := range c.Trackers.Bugzilla {
		if bz.Name == "" {
			return fmt.Errorf("trackers.bugzilla[%d].name is required", i)
		}
		if bz.BaseURL == "" {
			return fmt.Errorf("trackers.bugzilla[%d].base_url is required", i)
		}
	}
	for i, j := range c.Trackers.Jira {
		if j.Name == "" {
			return fmt.Errorf("trackers.jira[%d].name is required", i)
		}
		if j.BaseURL == "" {
			return fmt.Errorf("trackers.jira[%d].base_url is required", i)
		}
	}
	for i, yt := range c.Trackers.YouTrack {
		if yt.Name == "" {
			return fmt.Errorf("trackers.youtrack[%d].name is required", i)
		}
		if yt.BaseURL == "" {
			return fmt.Errorf("trackers.youtrack[%d].base_url is required", i)
		}
	}

	return nil
}

// applyDefaults fills in the values most deployments never set explicitly.
func (c *Config) applyDefaults() {
	if c.IRC.Port == 0 {
		c.IRC.Port = 6667
	}
	if c.IRC.Username == "" {
		c.IRC.Username = c.IRC.Nick
	}
	if c.IRC.Realname == "" {
		c.IRC.Realname = c.IRC.Nick
	}
	if c.IRC.Alternate == "" && c.IRC.Nick != "" {
		c.IRC.Alternate = c.IRC.Nick + "_"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "localhost:8113"
	}
	if c.Routes.RefreshInterval == 0 {
		c.Routes.RefreshInterval = time.Minute
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Trackers.GitHub.APIBase == "" {
		c.Trackers.GitHub.APIBase = "https://api.github.com"
	}

	for i := range c.Trackers.Bugzilla {
		c.Trackers.Bugzilla[i].TrackerOptions.applyDefaults(10 * time.Second)
	}
	for i := range c.Trackers.Jira {
		// JIRA has always run a longer window than the other trackers.
		c.Trackers.Jira[i].TrackerOptions.applyDefaults(15 * time.Second)
	}
	for i := range c.Trackers.YouTrack {
		c.Trackers.YouTrack[i].TrackerOptions.applyDefaults(10 * time.Second)
	}
	c.Trackers.GitHub.TrackerOptions.applyDefaults(10 * time.Second)
}

// applyDefaults fills a tracker's scan settings, clamping the match cap to a
// sane bound so a pathological message can never trigger unbounded lookups.
func (o *TrackerOptions) applyDefaults(window time.Duration) {
	if o.DedupeWindow == 0 {
		o.DedupeWindow = window
	}
	if o.MaxKeys <= 0 {
		o.MaxKeys = 10
	}
	if o.MaxKeys > 20 {
		o.MaxKeys = 20
	}
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Routes.RefreshIntervalRaw != "" {
		cfg.Routes.RefreshInterval, err = time.ParseDuration(cfg.Routes.RefreshIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing routes.refresh_interval %q: %w", cfg.Routes.RefreshIntervalRaw, err)
		}
	}

	for i := range cfg.Trackers.Bugzilla {
		if err := cfg.Trackers.Bugzilla[i].TrackerOptions.parseDurations(fmt.Sprintf("trackers.bugzilla[%d]", i)); err != nil {
			return err
		}
	}
	for i := range cfg.Trackers.Jira {
		if err := cfg.Trackers.Jira[i].TrackerOptions.parseDurations(fmt.Sprintf("trackers.jira[%d]", i)); err != nil {
			return err
		}
	}
	for i := range cfg.Trackers.YouTrack {
		if err := cfg.Trackers.YouTrack[i].TrackerOptions.parseDurations(fmt.Sprintf("trackers.youtrack[%d]", i)); err != nil {
			return err
		}
	}
	if err := cfg.Trackers.GitHub.TrackerOptions.parseDurations("trackers.github"); err != nil {
		return err
	}

	return nil
}

func (o *TrackerOptions) parseDurations(where string) error {
	if o.DedupeWindowRaw == "" {
		return nil
	}
	d, err := time.ParseDuration(o.DedupeWindowRaw)
	if err != nil {
		return fmt.Errorf("parsing %s.dedupe_window %q: %w", where, o.DedupeWindowRaw, err)
	}
	o.DedupeWindow = d
	return nil
}
