// Package config provides configuration loading and management for the content sync server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/content-sync-server/internal/telemetry"
)

// EnvPrefix is the prefix of every environment variable read by the server
const EnvPrefix = "CONTENT_SYNC"

// PublishingStrategy selects the remote targets of a sync
type PublishingStrategy string

const (
	// StrategyDisabled performs no remote calls
	StrategyDisabled PublishingStrategy = "disabled"

	// StrategyGit publishes to the canonical git repository only
	StrategyGit PublishingStrategy = "git"

	// StrategySyndication publishes to the syndication target only
	StrategySyndication PublishingStrategy = "syndication"

	// StrategyDual publishes to git first, then to the syndication target
	StrategyDual PublishingStrategy = "dual"
)

// StorageType selects where jobs and content items are persisted
type StorageType string

const (
	// StorageTypeFile keeps jobs and items as files below the data directory
	StorageTypeFile StorageType = "file"

	// StorageTypeDatabase keeps jobs and items in PostgreSQL
	StorageTypeDatabase StorageType = "database"
)

// RunnerType selects the task runner backend
type RunnerType string

const (
	// RunnerTypeMemory runs tasks on an in-process priority queue
	RunnerTypeMemory RunnerType = "memory"

	// RunnerTypeRedis runs tasks from a Redis sorted set
	RunnerTypeRedis RunnerType = "redis"

	// RunnerTypeDelayed only runs single-shot timers without priority
	RunnerTypeDelayed RunnerType = "delayed"
)

// LockType selects the per-item lock backend
type LockType string

const (
	// LockTypeMemory keeps locks in process memory
	LockTypeMemory LockType = "memory"

	// LockTypeRedis keeps locks in Redis
	LockTypeRedis LockType = "redis"
)

const (
	defaultBranch         = "main"
	defaultGitHubAPIURL   = "https://api.github.com"
	defaultContentDir     = "content/posts"
	defaultAssetDir       = "static/images"
	defaultDataDir        = "./data"
	defaultWorkers        = 4
	defaultSyndicationURL = "https://dev.to"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this also cleans the path.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Strategy selects the publishing targets. Defaults to "git".
	Strategy PublishingStrategy `yaml:"strategy,omitempty"`

	Site        SiteConfig         `yaml:"site"`
	GitHub      *GitHubConfig      `yaml:"github,omitempty"`
	Syndication *SyndicationConfig `yaml:"syndication,omitempty"`
	Media       *MediaConfig       `yaml:"media,omitempty"`
	Queue       *QueueConfig       `yaml:"queue,omitempty"`
	Storage     *StorageConfig     `yaml:"storage,omitempty"`
	Database    *DatabaseConfig    `yaml:"database,omitempty"`
	Redis       *RedisConfig       `yaml:"redis,omitempty"`
	Telemetry   *telemetry.Config  `yaml:"telemetry,omitempty"`
}

// SiteConfig describes the published static site
type SiteConfig struct {
	// BaseURL is the public URL of the site, used for canonical links
	BaseURL string `yaml:"baseURL"`
}

// GitHubConfig defines the canonical repository
type GitHubConfig struct {
	// Repository is "owner/repo"
	Repository string `yaml:"repository"`

	// Branch is the branch commits are pushed to. Defaults to "main".
	Branch string `yaml:"branch,omitempty"`

	// APIURL is the REST API base URL. Defaults to https://api.github.com.
	APIURL string `yaml:"apiURL,omitempty"`

	// TokenFile is the path to a file containing the access token.
	// CONTENT_SYNC_GITHUB_TOKEN is used when unset.
	TokenFile string `yaml:"tokenFile,omitempty"`

	// ContentDir is the repository directory documents are written to
	ContentDir string `yaml:"contentDir,omitempty"`

	// AssetDir is the repository directory assets are written to
	AssetDir string `yaml:"assetDir,omitempty"`

	// Timeout bounds every API call (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty"`
}

// SyndicationConfig defines the syndication article API
type SyndicationConfig struct {
	// Endpoint is the API base URL. Defaults to https://dev.to.
	Endpoint string `yaml:"endpoint,omitempty"`

	// APIKeyFile is the path to a file containing the API key.
	// CONTENT_SYNC_SYNDICATION_API_KEY is used when unset.
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`

	// Draft publishes articles unpublished
	Draft bool `yaml:"draft,omitempty"`

	// Timeout bounds every API call (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty"`
}

// MediaConfig defines where local media referenced by items is read from
type MediaConfig struct {
	// Root is the directory media paths are resolved against
	Root string `yaml:"root"`

	// AllowRemote permits fetching http(s) image references
	AllowRemote bool `yaml:"allowRemote,omitempty"`
}

// QueueConfig defines the job scheduler settings
type QueueConfig struct {
	// Runner selects the task runner backend. Defaults to "memory".
	Runner RunnerType `yaml:"runner,omitempty"`

	// Lock selects the lock backend. Defaults to "memory", or "redis" with the redis runner.
	Lock LockType `yaml:"lock,omitempty"`

	// Workers is the number of concurrent task workers
	Workers int `yaml:"workers,omitempty"`

	// AutoRetryInterval enables periodic re-enqueueing of retryable failures (e.g. "10m")
	AutoRetryInterval string `yaml:"autoRetryInterval,omitempty"`

	// SweepInterval is how often the stale-sync sweep runs. Defaults to "1m".
	SweepInterval string `yaml:"sweepInterval,omitempty"`
}

// StorageConfig defines where jobs and items are kept
type StorageConfig struct {
	// Type is "file" or "database". Defaults to "file".
	Type StorageType `yaml:"type,omitempty"`

	// DataDir is the base directory for file storage. Defaults to "./data".
	DataDir string `yaml:"dataDir,omitempty"`
}

// RedisConfig defines the Redis connection used by the redis runner and lock
type RedisConfig struct {
	// Addr is "host:port"
	Addr string `yaml:"addr"`

	// PasswordFile is the path to a file containing the password.
	// CONTENT_SYNC_REDIS_PASSWORD is used when unset.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// DB is the database number
	DB int `yaml:"db,omitempty"`

	// KeyPrefix namespaces every key. Defaults to "content-sync".
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetStrategy returns the publishing strategy, defaulting to git
func (c *Config) GetStrategy() PublishingStrategy {
	if c.Strategy == "" {
		return StrategyGit
	}
	return c.Strategy
}

// UsesGit reports whether the strategy writes to the canonical repository
func (s PublishingStrategy) UsesGit() bool {
	return s == StrategyGit || s == StrategyDual
}

// UsesSyndication reports whether the strategy writes to the syndication target
func (s PublishingStrategy) UsesSyndication() bool {
	return s == StrategySyndication || s == StrategyDual
}

// UsesGit reports whether the configured strategy writes to the canonical repository
func (c *Config) UsesGit() bool {
	return c.GetStrategy().UsesGit()
}

// UsesSyndication reports whether the configured strategy writes to the syndication target
func (c *Config) UsesSyndication() bool {
	return c.GetStrategy().UsesSyndication()
}

// GetStorageType returns the storage type, defaulting to file
func (c *Config) GetStorageType() StorageType {
	if c.Storage == nil || c.Storage.Type == "" {
		return StorageTypeFile
	}
	return c.Storage.Type
}

// GetDataDir returns the file storage base directory
func (c *Config) GetDataDir() string {
	if c.Storage == nil || c.Storage.DataDir == "" {
		return defaultDataDir
	}
	return c.Storage.DataDir
}

// GetQueue returns the queue settings, never nil
func (c *Config) GetQueue() *QueueConfig {
	if c.Queue == nil {
		return &QueueConfig{}
	}
	return c.Queue
}

// GetRunnerType returns the task runner backend, defaulting to memory
func (q *QueueConfig) GetRunnerType() RunnerType {
	if q.Runner == "" {
		return RunnerTypeMemory
	}
	return q.Runner
}

// GetLockType returns the lock backend. The redis runner implies redis locks.
func (q *QueueConfig) GetLockType() LockType {
	if q.Lock != "" {
		return q.Lock
	}
	if q.GetRunnerType() == RunnerTypeRedis {
		return LockTypeRedis
	}
	return LockTypeMemory
}

// GetWorkers returns the worker count
func (q *QueueConfig) GetWorkers() int {
	if q.Workers <= 0 {
		return defaultWorkers
	}
	return q.Workers
}

// GetAutoRetryInterval returns the auto-retry interval; zero disables auto-retry
func (q *QueueConfig) GetAutoRetryInterval() time.Duration {
	d, _ := time.ParseDuration(q.AutoRetryInterval)
	return d
}

// GetSweepInterval returns the stale-sync sweep interval
func (q *QueueConfig) GetSweepInterval() time.Duration {
	if d, err := time.ParseDuration(q.SweepInterval); err == nil && d > 0 {
		return d
	}
	return time.Minute
}

// GetBranch returns the target branch
func (g *GitHubConfig) GetBranch() string {
	if g.Branch == "" {
		return defaultBranch
	}
	return g.Branch
}

// GetAPIURL returns the REST API base URL without a trailing slash
func (g *GitHubConfig) GetAPIURL() string {
	if g.APIURL == "" {
		return defaultGitHubAPIURL
	}
	return strings.TrimRight(g.APIURL, "/")
}

// GetContentDir returns the document directory
func (g *GitHubConfig) GetContentDir() string {
	if g.ContentDir == "" {
		return defaultContentDir
	}
	return strings.Trim(g.ContentDir, "/")
}

// GetAssetDir returns the asset directory
func (g *GitHubConfig) GetAssetDir() string {
	if g.AssetDir == "" {
		return defaultAssetDir
	}
	return strings.Trim(g.AssetDir, "/")
}

// GetTimeout returns the API call timeout, zero meaning the client default
func (g *GitHubConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(g.Timeout)
	return d
}

// GetEndpoint returns the syndication API base URL without a trailing slash
func (s *SyndicationConfig) GetEndpoint() string {
	if s.Endpoint == "" {
		return defaultSyndicationURL
	}
	return strings.TrimRight(s.Endpoint, "/")
}

// GetTimeout returns the API call timeout, zero meaning the client default
func (s *SyndicationConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(s.Timeout)
	return d
}

// GetKeyPrefix returns the Redis key namespace
func (r *RedisConfig) GetKeyPrefix() string {
	if r == nil || r.KeyPrefix == "" {
		return "content-sync"
	}
	return r.KeyPrefix
}

// Validate checks the configuration without resolving secrets
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	switch c.GetStrategy() {
	case StrategyDisabled, StrategyGit, StrategySyndication, StrategyDual:
	default:
		errs = append(errs, fmt.Errorf("strategy: unsupported value %q", c.Strategy))
	}

	if c.Site.BaseURL != "" {
		if err := validateURL(c.Site.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("site.baseURL: %w", err))
		}
	}

	// Repository settings are checked at request time so a misconfigured
	// repository surfaces as a fatal config error on the job.
	if c.UsesGit() && c.GitHub == nil {
		errs = append(errs, fmt.Errorf("github: section is required for strategy %q", c.GetStrategy()))
	}
	if c.GitHub != nil {
		errs = append(errs, validateDuration("github.timeout", c.GitHub.Timeout))
		if c.GitHub.APIURL != "" {
			if err := validateURL(c.GitHub.APIURL); err != nil {
				errs = append(errs, fmt.Errorf("github.apiURL: %w", err))
			}
		}
	}

	if c.UsesSyndication() {
		if c.Syndication == nil {
			errs = append(errs, fmt.Errorf("syndication: section is required for strategy %q", c.GetStrategy()))
		}
		if c.Site.BaseURL == "" {
			errs = append(errs, fmt.Errorf("site.baseURL: required for canonical links when syndicating"))
		}
	}
	if c.Syndication != nil {
		errs = append(errs, validateDuration("syndication.timeout", c.Syndication.Timeout))
		if c.Syndication.Endpoint != "" {
			if err := validateURL(c.Syndication.Endpoint); err != nil {
				errs = append(errs, fmt.Errorf("syndication.endpoint: %w", err))
			}
		}
	}

	errs = append(errs, c.validateQueue(), c.validateStorage(), c.Telemetry.Validate())

	return errors.Join(errs...)
}

func (c *Config) validateQueue() error {
	q := c.GetQueue()

	var errs []error
	switch q.GetRunnerType() {
	case RunnerTypeMemory, RunnerTypeDelayed:
	case RunnerTypeRedis:
		if c.Redis == nil || c.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("redis.addr: required for the redis runner"))
		}
	default:
		errs = append(errs, fmt.Errorf("queue.runner: unsupported value %q", q.Runner))
	}

	switch q.GetLockType() {
	case LockTypeMemory:
		if q.GetRunnerType() == RunnerTypeRedis {
			errs = append(errs, fmt.Errorf("queue.lock: memory locks cannot guard a shared redis runner"))
		}
	case LockTypeRedis:
		if c.Redis == nil || c.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("redis.addr: required for redis locks"))
		}
	default:
		errs = append(errs, fmt.Errorf("queue.lock: unsupported value %q", q.Lock))
	}

	if q.Workers < 0 {
		errs = append(errs, fmt.Errorf("queue.workers: must not be negative"))
	}
	errs = append(errs,
		validateDuration("queue.autoRetryInterval", q.AutoRetryInterval),
		validateDuration("queue.sweepInterval", q.SweepInterval),
	)

	return errors.Join(errs...)
}

func (c *Config) validateStorage() error {
	switch c.GetStorageType() {
	case StorageTypeFile:
		return nil
	case StorageTypeDatabase:
		if c.Database == nil {
			return fmt.Errorf("database: section is required for storage type %q", StorageTypeDatabase)
		}
		return c.Database.validate()
	default:
		return fmt.Errorf("storage.type: unsupported value %q", c.Storage.Type)
	}
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}
	if d < 0 {
		return fmt.Errorf("%s: must not be negative", field)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) URL, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
