package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"s3repack/internal/storage"
)

// Config represents the application configuration
type Config struct {
	Source   S3Config `yaml:"source"`
	Target   S3Config `yaml:"target"`
	Repack   Repack   `yaml:"repack"`
	LogLevel string   `yaml:"log_level"`
}

// S3Config represents S3-compatible storage configuration
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// Repack represents pipeline-specific configuration
type Repack struct {
	Src          string   `yaml:"src"`
	Dst          string   `yaml:"dst"`
	BatchSize    int      `yaml:"batch_size"`
	Workers      int      `yaml:"workers"`
	SkipExisting bool     `yaml:"skip_existing"`
	Extensions   []string `yaml:"extensions"`
	Journal      string   `yaml:"journal"`
	MetricsAddr  string   `yaml:"metrics_addr"`
}

// Location is a bucket plus normalized key prefix, decomposed from an
// s3://bucket/prefix URI.
type Location struct {
	Bucket string
	Prefix string
}

// ParseURI decomposes an s3://bucket/prefix URI into a Location. The prefix
// part is normalized (no leading slash, trailing slash when non-empty).
func ParseURI(uri string) (Location, error) {
	const scheme = "s3://"
	if !strings.HasPrefix(uri, scheme) {
		return Location{}, fmt.Errorf("URI %q must start with %s", uri, scheme)
	}

	rest := uri[len(scheme):]
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("URI %q has no bucket", uri)
	}

	return Location{
		Bucket: bucket,
		Prefix: storage.NormalizePrefix(prefix),
	}, nil
}

// Load loads configuration from file and command line flags
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{
		LogLevel: "info",
		Repack: Repack{
			BatchSize:    65536,
			Workers:      0,
			SkipExisting: true,
			Extensions:   storage.DefaultExtensions,
		},
	}

	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadFromFlags(cfg, flags); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func loadFromFlags(cfg *Config, flags *pflag.FlagSet) error {
	if flags.Changed("src-endpoint") {
		cfg.Source.Endpoint, _ = flags.GetString("src-endpoint")
	}
	if flags.Changed("src-access-key") {
		cfg.Source.AccessKey, _ = flags.GetString("src-access-key")
	}
	if flags.Changed("src-secret-key") {
		cfg.Source.SecretKey, _ = flags.GetString("src-secret-key")
	}
	if flags.Changed("src-secure") {
		cfg.Source.Secure, _ = flags.GetBool("src-secure")
	}

	if flags.Changed("dst-endpoint") {
		cfg.Target.Endpoint, _ = flags.GetString("dst-endpoint")
	}
	if flags.Changed("dst-access-key") {
		cfg.Target.AccessKey, _ = flags.GetString("dst-access-key")
	}
	if flags.Changed("dst-secret-key") {
		cfg.Target.SecretKey, _ = flags.GetString("dst-secret-key")
	}
	if flags.Changed("dst-secure") {
		cfg.Target.Secure, _ = flags.GetBool("dst-secure")
	}

	if flags.Changed("src") {
		cfg.Repack.Src, _ = flags.GetString("src")
	}
	if flags.Changed("dst") {
		cfg.Repack.Dst, _ = flags.GetString("dst")
	}
	if flags.Changed("batch-size") {
		cfg.Repack.BatchSize, _ = flags.GetInt("batch-size")
	}
	if flags.Changed("workers") {
		cfg.Repack.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("no-skip-existing") {
		noSkip, _ := flags.GetBool("no-skip-existing")
		cfg.Repack.SkipExisting = !noSkip
	}
	if flags.Changed("extensions") {
		cfg.Repack.Extensions, _ = flags.GetStringSlice("extensions")
	}
	if flags.Changed("journal") {
		cfg.Repack.Journal, _ = flags.GetString("journal")
	}
	if flags.Changed("metrics-addr") {
		cfg.Repack.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	return nil
}

func (c *Config) validate() error {
	if c.Repack.Src == "" {
		return fmt.Errorf("source URI is required")
	}
	if c.Repack.Dst == "" {
		return fmt.Errorf("destination URI is required")
	}
	if _, err := ParseURI(c.Repack.Src); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if _, err := ParseURI(c.Repack.Dst); err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	if c.Source.Endpoint == "" {
		return fmt.Errorf("source endpoint is required")
	}
	if c.Target.Endpoint == "" {
		return fmt.Errorf("target endpoint is required")
	}

	if c.Repack.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.Repack.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if len(c.Repack.Extensions) == 0 {
		return fmt.Errorf("at least one file extension is required")
	}

	return nil
}
