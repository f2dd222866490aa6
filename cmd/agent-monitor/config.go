package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sternrassler/agent-monitor/pkg/client"
	"github.com/Sternrassler/agent-monitor/pkg/logging"
	"github.com/Sternrassler/agent-monitor/pkg/prefs"
)

// Preference backends.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// config holds the resolved settings from flags, environment and config file.
type config struct {
	APIURL       string        `mapstructure:"api-url"`
	PageLimit    int           `mapstructure:"page-limit"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LogLevel     string        `mapstructure:"log-level"`
	LogFile      string        `mapstructure:"log-file"`
	LogPretty    bool          `mapstructure:"log-pretty"`
	PrefsBackend string        `mapstructure:"prefs-backend"`
	PrefsFile    string        `mapstructure:"prefs-file"`
	RedisAddr    string        `mapstructure:"redis-addr"`
	Profile      string        `mapstructure:"profile"`
	MetricsAddr  string        `mapstructure:"metrics-addr"`
	RetryUnit    time.Duration `mapstructure:"retry-unit"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agent-monitor", "config.yml")
}

// loadConfig resolves the configuration. Flags that were set win over
// AGENTMON_* environment variables, which win over the config file. A missing
// config file is only an error when configPath was given explicitly.
func loadConfig(configPath string, flags *pflag.FlagSet) (config, error) {
	var cfg config

	v := viper.New()
	v.SetEnvPrefix("AGENTMON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("api-url", "")
	v.SetDefault("page-limit", 5)
	v.SetDefault("timeout", client.DefaultTimeout)
	v.SetDefault("log-level", string(logging.LevelInfo))
	v.SetDefault("log-file", "")
	v.SetDefault("log-pretty", false)
	v.SetDefault("prefs-backend", backendFile)
	v.SetDefault("prefs-file", "")
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("profile", prefs.DefaultProfile)
	v.SetDefault("metrics-addr", "")
	v.SetDefault("retry-unit", time.Second)

	// API_URL is what the dashboard has always been configured with.
	if err := v.BindEnv("api-url", "AGENTMON_API_URL", "API_URL"); err != nil {
		return cfg, err
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return cfg, fmt.Errorf("bind flags: %w", err)
		}
	}

	explicit := configPath != ""
	if !explicit {
		configPath = defaultConfigPath()
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var configFileNotFound viper.ConfigFileNotFoundError
			notFound := errors.As(err, &configFileNotFound) || os.IsNotExist(err)
			if explicit || !notFound {
				return cfg, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.PageLimit < 1 {
		return fmt.Errorf("page-limit must be at least 1 (got %d)", c.PageLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	if c.RetryUnit <= 0 {
		return fmt.Errorf("retry-unit must be positive (got %s)", c.RetryUnit)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.PrefsBackend {
	case backendFile, backendRedis, backendNone:
	default:
		return fmt.Errorf("prefs-backend must be file, redis or none (got %q)", c.PrefsBackend)
	}
	return nil
}

// newAPI creates the backend client. api-url is only required by commands that
// talk to the backend.
func (c config) newAPI() (*client.Client, error) {
	if c.APIURL == "" {
		return nil, errors.New("api-url is required (set --api-url, AGENTMON_API_URL or API_URL)")
	}
	cfg := client.DefaultConfig(c.APIURL)
	cfg.UserAgent = userAgent()
	cfg.Timeout = c.Timeout
	return client.New(cfg)
}

// setupLogging configures the global logger. Without a log file, logs go to
// fallback. The returned function closes the log file.
func (c config) setupLogging(fallback io.Writer) (func() error, error) {
	out := fallback
	closeFn := func() error { return nil }

	if c.LogFile != "" {
		f, err := logging.OpenFile(c.LogFile)
		if err != nil {
			return nil, err
		}
		out = f
		closeFn = f.Close
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(c.LogLevel),
		Pretty: c.LogPretty,
		Output: out,
	})
	return closeFn, nil
}

// openStore opens the configured preference store.
func (c config) openStore(ctx context.Context) (prefs.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.PrefsBackend {
	case backendNone:
		return prefs.NopStore{}, noop, nil

	case backendRedis:
		redisClient := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", c.RedisAddr, err)
		}
		return prefs.NewRedisStore(redisClient, c.Profile, logging.NewLogger("prefs")), redisClient.Close, nil

	default:
		path := c.PrefsFile
		if path == "" {
			p, err := prefs.DefaultPath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		return prefs.NewFileStore(path), noop, nil
	}
}
