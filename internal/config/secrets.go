package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Environment keys, read with the CONTENT_SYNC_ prefix
const (
	EnvGitHubToken       = "GITHUB_TOKEN"
	EnvSyndicationAPIKey = "SYNDICATION_API_KEY"
	EnvDatabasePassword  = "DATABASE_PASSWORD"
	EnvRedisPassword     = "REDIS_PASSWORD"
)

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// CONTENT_SYNC_DATABASE_PASSWORD is used when unset.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database.host: required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("database.port: must be between 1 and 65535")
	}
	if d.User == "" {
		return fmt.Errorf("database.user: required")
	}
	if d.Database == "" {
		return fmt.Errorf("database.database: required")
	}
	return validateDuration("database.connMaxLifetime", d.ConnMaxLifetime)
}

// GetPassword returns the database password, read from PasswordFile or
// from CONTENT_SYNC_DATABASE_PASSWORD.
func (d *DatabaseConfig) GetPassword() (string, error) {
	return resolveSecret(d.PasswordFile, EnvDatabasePassword, "database password")
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String(), nil
}

// GetToken returns the GitHub token, read from TokenFile or CONTENT_SYNC_GITHUB_TOKEN.
// An empty token is not an error here; the repository client reports it.
func (g *GitHubConfig) GetToken() (string, error) {
	return resolveOptionalSecret(g.TokenFile, EnvGitHubToken)
}

// GetAPIKey returns the syndication API key, read from APIKeyFile or
// CONTENT_SYNC_SYNDICATION_API_KEY.
func (s *SyndicationConfig) GetAPIKey() (string, error) {
	return resolveOptionalSecret(s.APIKeyFile, EnvSyndicationAPIKey)
}

// GetPassword returns the Redis password, empty when none is configured
func (r *RedisConfig) GetPassword() (string, error) {
	return resolveOptionalSecret(r.PasswordFile, EnvRedisPassword)
}

func resolveSecret(file, envKey, what string) (string, error) {
	secret, err := resolveOptionalSecret(file, envKey)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", fmt.Errorf("no %s configured: set the file option or %s_%s", what, EnvPrefix, envKey)
	}
	return secret, nil
}

// resolveOptionalSecret reads a secret from a file if one is given, else from the environment
func resolveOptionalSecret(file, envKey string) (string, error) {
	if file != "" {
		cleanPath := filepath.Clean(file)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read secret from file %s: %w", file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return NewEnv().GetString(envKey), nil
}

// NewEnv returns a viper instance reading CONTENT_SYNC_* environment variables
func NewEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}
