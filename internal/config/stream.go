package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// StreamConfig holds configuration for the stream commands.
type StreamConfig struct {
	Config
	Pools               []string
	Reconnect           int
	ReconnectBackoff    time.Duration
	ReconnectMaxBackoff time.Duration
}

// LoadStream merges config file, environment variables, and flags into StreamConfig.
func LoadStream(cfgFile string, flags *pflag.FlagSet) (StreamConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return StreamConfig{}, err
	}

	cfg := StreamConfig{
		Config:              fromViper(v),
		Pools:               getStringSlice(v, "pool"),
		Reconnect:           v.GetInt("reconnect"),
		ReconnectBackoff:    v.GetDuration("reconnect-backoff"),
		ReconnectMaxBackoff: v.GetDuration("reconnect-max-backoff"),
	}
	if cfg.Reconnect < 0 {
		return StreamConfig{}, fmt.Errorf("reconnect must not be negative")
	}
	return cfg, nil
}
