package core

import (
	"fmt"
	"strings"
	"time"
)

type StorageConfig struct {
	Dir string `koanf:"dir" mapstructure:"dir"`
}

type CallbackConfig struct {
	Host           string `koanf:"host" mapstructure:"host"`
	Port           int    `koanf:"port" mapstructure:"port"`
	TimeoutSeconds int    `koanf:"timeout_seconds" mapstructure:"timeout_seconds"`
}

func (c CallbackConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c CallbackConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type OAuthConfig struct {
	AuthURL  string `koanf:"auth_url" mapstructure:"auth_url"`
	TokenURL string `koanf:"token_url" mapstructure:"token_url"`
}

type Config struct {
	ServiceName   string         `koanf:"service_name" mapstructure:"service_name"`
	Storage       StorageConfig  `koanf:"storage" mapstructure:"storage"`
	Callback      CallbackConfig `koanf:"callback" mapstructure:"callback"`
	OAuth         OAuthConfig    `koanf:"oauth" mapstructure:"oauth"`
	DefaultRounds string         `koanf:"default_rounds" mapstructure:"default_rounds"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "accounts",
		Callback: CallbackConfig{
			Host:           "127.0.0.1",
			Port:           8484,
			TimeoutSeconds: 300,
		},
		OAuth: OAuthConfig{
			AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		DefaultRounds: DefaultRoundSelector,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Callback.Port < 0 || c.Callback.Port > 65535 {
		return fmt.Errorf("core: callback port %d is out of range", c.Callback.Port)
	}
	if _, err := parseRoundSelector(c.DefaultRounds); err != nil {
		return fmt.Errorf("core: default_rounds: %w", err)
	}
	return nil
}
