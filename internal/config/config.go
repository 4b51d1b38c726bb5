// Package config provides configuration loading and defaults for siteinsight.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level siteinsight configuration.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Client   Client   `mapstructure:"client"`
	Analysis Analysis `mapstructure:"analysis"`
	Log      Log      `mapstructure:"log"`
	Output   Output   `mapstructure:"output"`
	Watch    Watch    `mapstructure:"watch"`
}

// Server configures the simulated analytics server.
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Mode is "random" or "static".
	Mode string `mapstructure:"mode"`
	// Seed fixes the random generator. Zero seeds from entropy.
	Seed uint64 `mapstructure:"seed"`
}

// Client configures how the agent reaches the server.
type Client struct {
	// BaseURL overrides the URL derived from Server.Host and Server.Port.
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// Analysis tunes analysis runs.
type Analysis struct {
	WindowDays    int  `mapstructure:"window_days"`
	Parallel      bool `mapstructure:"parallel"`
	TopPagesLimit int  `mapstructure:"top_pages_limit"`
}

// Log configures the logrus logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
}

// Watch configures the watch command.
type Watch struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Addr returns the server's listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// BaseURL returns the URL the agent should call.
func (c *Config) BaseURL() string {
	if c.Client.BaseURL != "" {
		return strings.TrimRight(c.Client.BaseURL, "/")
	}
	return "http://" + c.Addr()
}

// Validate rejects values no command can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Mode != "random" && c.Server.Mode != "static" {
		errs = append(errs, fmt.Errorf("server.mode must be random or static, got %q", c.Server.Mode))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("client.timeout must be positive, got %s", c.Client.Timeout))
	}
	if c.Client.Retries < 0 {
		errs = append(errs, fmt.Errorf("client.retries must not be negative, got %d", c.Client.Retries))
	}
	if c.Analysis.WindowDays < 1 {
		errs = append(errs, fmt.Errorf("analysis.window_days must be at least 1, got %d", c.Analysis.WindowDays))
	}
	if c.Watch.Interval <= 0 {
		errs = append(errs, fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval))
	}
	return errors.Join(errs...)
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// LoadEnv loads .env files from the working directory into the process
// environment without overriding variables that are already set. It
// returns the files that were loaded.
func LoadEnv(files ...string) []string {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var loaded []string
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			continue
		}
		loaded = append(loaded, file)
	}
	return loaded
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Environment variables
// prefixed SITEINSIGHT_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", DefaultServer.Host)
	v.SetDefault("server.port", DefaultServer.Port)
	v.SetDefault("server.mode", DefaultServer.Mode)
	v.SetDefault("server.seed", DefaultServer.Seed)
	v.SetDefault("client.base_url", DefaultClient.BaseURL)
	v.SetDefault("client.timeout", DefaultClient.Timeout)
	v.SetDefault("client.retries", DefaultClient.Retries)
	v.SetDefault("analysis.window_days", DefaultAnalysis.WindowDays)
	v.SetDefault("analysis.parallel", DefaultAnalysis.Parallel)
	v.SetDefault("analysis.top_pages_limit", DefaultAnalysis.TopPagesLimit)
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("log.format", DefaultLog.Format)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("watch.interval", DefaultWatch.Interval)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// A missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(ConfigDir(), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
