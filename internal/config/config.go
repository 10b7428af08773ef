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
	AppName = "ossub-downloader"

	DefaultEndpoint      = "https://api.opensubtitles.org/xml-rpc"
	DefaultUserAgent     = "SMPlayer v22"
	DefaultLoginLanguage = "en"
	DefaultLanguage      = "eng"
	DefaultSyncCommand   = "alass"
	DefaultSearchLimit   = 500
)

// Config holds the runtime settings. Every key can also be supplied through
// an OSSUB_<KEY> environment variable.
type Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	UserAgent       string        `mapstructure:"user_agent"`
	LoginLanguage   string        `mapstructure:"login_language"`
	Language        string        `mapstructure:"language"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	SyncCommand     string        `mapstructure:"sync_command"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	LogLevel        string        `mapstructure:"log_level"`
	SearchLimit     int           `mapstructure:"search_limit"`
}

// Load reads configuration from path, or from the first config.{toml,yaml,json}
// found in the user config directory when path is empty. A missing file in the
// search locations is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OSSUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("login_language", DefaultLoginLanguage)
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("credentials_file", "")
	v.SetDefault("sync_command", DefaultSyncCommand)
	v.SetDefault("http_timeout", time.Duration(0))
	v.SetDefault("log_level", "info")
	v.SetDefault("search_limit", DefaultSearchLimit)
}

func searchDirs() []string {
	var dirs []string
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, AppName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", AppName))
	}
	return dirs
}

func (c *Config) normalize() error {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	c.Language = strings.TrimSpace(c.Language)
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.SyncCommand = strings.TrimSpace(c.SyncCommand); c.SyncCommand == "" {
		c.SyncCommand = DefaultSyncCommand
	}

	path, err := expandHome(strings.TrimSpace(c.CredentialsFile))
	if err != nil {
		return err
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, "."+AppName+".creds.json")
	}
	c.CredentialsFile = path
	return nil
}

// Validate reports settings that would make every remote call fail.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("config: endpoint must not be empty")
	}
	if c.UserAgent == "" {
		return errors.New("config: user_agent must not be empty")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("config: http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	if c.SearchLimit < 0 {
		return fmt.Errorf("config: search_limit must not be negative, got %d", c.SearchLimit)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
