package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName = "gh-orgstars"

	DefaultOrganization   = "swiftlang"
	DefaultRequestTimeout = 30 * time.Second
	DefaultDetailCacheTTL = 5 * time.Minute
	DefaultSecretsBackend = "keyring"
)

// Config holds application configuration loaded from the environment and an
// optional YAML file. Environment variables win over the file.
type Config struct {
	GitHubToken    string
	BaseURL        string
	Organization   string
	RequestTimeout time.Duration
	DetailCacheTTL time.Duration
	SecretsBackend string
	SecretsFile    string
	SlackMode      bool
	DebugMode      bool

	S3BucketName string
	S3ObjectKey  string
	AWSRegion    string
}

// Load reads configuration. An empty path looks for config.yaml in the user
// config directory and tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	v := newViper()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if dir, err := os.UserConfigDir(); err == nil {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(dir, appName))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	return decode(v), nil
}

// FromEnvironment loads configuration like Load(""), ignoring a config file
// that cannot be parsed.
func FromEnvironment() Config {
	if cfg, err := Load(""); err == nil {
		return cfg
	}
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("base_url", "https://api.github.com")
	v.SetDefault("organization", DefaultOrganization)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("detail_cache_ttl", DefaultDetailCacheTTL)
	v.SetDefault("secrets_backend", DefaultSecretsBackend)
	v.SetDefault("secrets_file", defaultSecretsFile())
	v.SetDefault("s3_object_key", "gh-orgstars/repos.json")
	v.SetDefault("aws_region", "us-east-1")
	return v
}

func decode(v *viper.Viper) Config {
	return Config{
		GitHubToken:    v.GetString("github_token"),
		BaseURL:        v.GetString("base_url"),
		Organization:   strings.TrimSpace(v.GetString("organization")),
		RequestTimeout: v.GetDuration("request_timeout"),
		DetailCacheTTL: v.GetDuration("detail_cache_ttl"),
		SecretsBackend: v.GetString("secrets_backend"),
		SecretsFile:    v.GetString("secrets_file"),
		SlackMode:      truthy(v.GetString("slack_mode")),
		DebugMode:      truthy(v.GetString("debug")),
		S3BucketName:   v.GetString("s3_bucket_name"),
		S3ObjectKey:    v.GetString("s3_object_key"),
		AWSRegion:      v.GetString("aws_region"),
	}
}

// truthy treats anything but empty, "0" and "false" as true.
func truthy(val string) bool {
	return val != "" && val != "0" && strings.ToLower(val) != "false"
}

func defaultSecretsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName, "secrets.db")
}
