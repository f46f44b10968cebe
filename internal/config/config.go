package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"heimdahl/internal/client"
)

const envPrefix = "HEIMDAHL"

// Config holds settings shared by every command, loaded from flags, env, a
// .env file, or a config file.
type Config struct {
	APIKey   string
	BaseURL  string
	WSURL    string
	Timeout  time.Duration
	LogLevel string
	Out      string
	PGDSN    string
	Pretty   bool
}

// Validate checks the settings every API call needs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("api key is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		APIKey:   strings.TrimSpace(v.GetString("api-key")),
		BaseURL:  v.GetString("base-url"),
		WSURL:    v.GetString("ws-url"),
		Timeout:  v.GetDuration("timeout"),
		LogLevel: v.GetString("log-level"),
		Out:      v.GetString("out"),
		PGDSN:    v.GetString("pg-dsn"),
		Pretty:   v.GetBool("pretty"),
	}
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("base-url", client.DefaultBaseURL)
	v.SetDefault("ws-url", client.DefaultStreamURL)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("log-level", "info")
	v.SetDefault("env-file", ".env")
	v.SetDefault("reconnect", 0)
	v.SetDefault("reconnect-backoff", time.Second)
	v.SetDefault("reconnect-max-backoff", 30*time.Second)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := loadDotEnv(v.GetString("env-file")); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// loadDotEnv exports variables from path without overriding ones already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
