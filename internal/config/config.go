package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Package PackageConfig `yaml:"package"`
	Chroot  ChrootConfig  `yaml:"chroot"`
	Publish PublishConfig `yaml:"publish"`
	Retry   RetryConfig   `yaml:"retry,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// PackageConfig describes the package source tree being built.
type PackageConfig struct {
	Name        string `yaml:"name,omitempty"`         // informational; derived from .dsc when empty
	SourceDir   string `yaml:"source_dir,omitempty"`   // directory with debian/ metadata
	ArtifactDir string `yaml:"artifact_dir,omitempty"` // where build tools drop artifacts; defaults to parent of source_dir
}

// ChrootConfig identifies the sbuild chroot the binary build runs in.
type ChrootConfig struct {
	Arch         string `yaml:"arch"`
	Distribution string `yaml:"distribution"`
	Mirror       string `yaml:"mirror,omitempty"`
	BaseDir      string `yaml:"base_dir,omitempty"` // chroot tree location for sbuild-createchroot
}

// PublishConfig describes the Gemfury-style package repository.
// Token is intentionally env-only (FURY_TOKEN / DEBFORGE_PUBLISH_TOKEN);
// it is never serialized back out.
type PublishConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Account  string `yaml:"account,omitempty"`
	Token    string `yaml:"-"`
}

// RetryBackoffMode selects the backoff shape for transient publish failures.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig controls retry/backoff for transient upload failures.
// MaxRetries is a pointer so an explicit 0 (no retries) survives
// defaulting.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries *int             `yaml:"max_retries,omitempty"`
}

// HistoryConfig controls the local build history store.
type HistoryConfig struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// WatchConfig controls watch (daemon) mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Schedule time.Duration `yaml:"schedule,omitempty"` // optional periodic rebuild interval
	Listen   string        `yaml:"listen,omitempty"`   // address for /metrics and /healthz
}

// NotifyConfig controls optional build event announcements over NATS.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// OutputConfig controls build outputs beyond the artifacts themselves.
type OutputConfig struct {
	ManifestPath string `yaml:"manifest_path,omitempty"`
}

// Load loads configuration from the specified file, applies environment
// overrides, defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in values the file and environment left unset.
func applyDefaults(c *Config) {
	if c.Package.SourceDir == "" {
		c.Package.SourceDir = "."
	}
	if c.Package.ArtifactDir == "" {
		// dpkg-source and sbuild drop their outputs next to the source tree.
		abs, err := filepath.Abs(c.Package.SourceDir)
		if err != nil {
			abs = c.Package.SourceDir
		}
		c.Package.ArtifactDir = filepath.Dir(abs)
	}
	if c.Chroot.Mirror == "" {
		c.Chroot.Mirror = "http://deb.debian.org/debian"
	}
	if c.Chroot.BaseDir == "" {
		c.Chroot.BaseDir = "/srv/chroot"
	}
	if c.Publish.Endpoint == "" {
		c.Publish.Endpoint = "https://push.fury.io"
	}
	switch c.Retry.Mode {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	case "":
		c.Retry.Mode = RetryBackoffLinear
	default:
		slog.Warn("Unknown retry mode, using linear", slog.String("mode", string(c.Retry.Mode)))
		c.Retry.Mode = RetryBackoffLinear
	}
	if c.Retry.Initial == 0 {
		c.Retry.Initial = time.Second
	}
	if c.Retry.Max == 0 {
		c.Retry.Max = 30 * time.Second
	}
	if c.Retry.MaxRetries == nil {
		two := 2
		c.Retry.MaxRetries = &two
	}
	if c.History.Path == "" {
		c.History.Path = defaultHistoryPath()
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 2 * time.Second
	}
	if c.Watch.Listen == "" {
		c.Watch.Listen = "127.0.0.1:9465"
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "debforge.builds"
	}
	if c.Output.ManifestPath == "" {
		c.Output.ManifestPath = filepath.Join(c.Package.ArtifactDir, "debforge-manifest.json")
	}
}

func defaultHistoryPath() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "debforge", "history.db")
	}
	return filepath.Join(cache, "debforge", "history.db")
}

// ChrootName returns the schroot identifier sbuild-createchroot registers,
// conventionally <distribution>-<arch>-sbuild.
func (c *ChrootConfig) ChrootName() string {
	return fmt.Sprintf("%s-%s-sbuild", c.Distribution, c.Arch)
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := `# debforge configuration
package:
  # name: mypackage           # optional, derived from the source descriptor
  source_dir: .                # directory containing debian/ metadata
  # artifact_dir: ..           # where .deb/.changes land (default: parent of source_dir)

chroot:
  arch: amd64
  distribution: bookworm
  # mirror: http://deb.debian.org/debian
  # base_dir: /srv/chroot

publish:
  # endpoint: https://push.fury.io
  account: ${FURY_ACCOUNT}
  # token comes from FURY_TOKEN or DEBFORGE_PUBLISH_TOKEN, never from this file

retry:
  mode: linear                 # fixed|linear|exponential
  initial: 1s
  max: 30s
  max_retries: 2               # 0 disables retries

# watch:
#   debounce: 2s
#   schedule: 1h
#   listen: 127.0.0.1:9465

# notify:
#   enabled: true
#   url: nats://localhost:4222
#   subject: debforge.builds
`
	if err := os.WriteFile(configPath, []byte(example), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
