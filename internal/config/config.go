// Package config loads the recognized configuration options from spec.md §6:
// tool endpoint URLs, timeouts, and deadlines. Values are read from
// environment variables or an optional config.yaml via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every recognized option. All fields are required to be
// non-zero after Load except DataToolEndpoint/PromptToolEndpoint's presence
// is enforced separately by the tool client's fail-closed rule (see
// internal/mcpclient), not here — this package only parses values.
type Config struct {
	DataToolEndpoint     string        `mapstructure:"data_tool_endpoint"`
	PromptToolEndpoint   string        `mapstructure:"prompt_tool_endpoint"`
	ToolCallTimeout      time.Duration `mapstructure:"tool_call_timeout_seconds"`
	TurnDeadline         time.Duration `mapstructure:"turn_deadline_seconds"`
	PlanDeadline         time.Duration `mapstructure:"plan_deadline_seconds"`
	SyncRecentUserWindow time.Duration `mapstructure:"sync_recent_user_window_hours"`
}

// Load reads configuration from the given directory (a config.yaml there, if
// present) and from the environment, applying spec.md §6's defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("tool_call_timeout_seconds", 30)
	v.SetDefault("turn_deadline_seconds", 60)
	v.SetDefault("plan_deadline_seconds", 120)
	v.SetDefault("sync_recent_user_window_hours", 2)
	_ = v.BindEnv("data_tool_endpoint")
	_ = v.BindEnv("prompt_tool_endpoint")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var raw struct {
		DataToolEndpoint    string `mapstructure:"data_tool_endpoint"`
		PromptToolEndpoint  string `mapstructure:"prompt_tool_endpoint"`
		ToolCallTimeoutSecs int    `mapstructure:"tool_call_timeout_seconds"`
		TurnDeadlineSecs    int    `mapstructure:"turn_deadline_seconds"`
		PlanDeadlineSecs    int    `mapstructure:"plan_deadline_seconds"`
		SyncWindowHours     int    `mapstructure:"sync_recent_user_window_hours"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	return Config{
		DataToolEndpoint:     raw.DataToolEndpoint,
		PromptToolEndpoint:   raw.PromptToolEndpoint,
		ToolCallTimeout:      time.Duration(raw.ToolCallTimeoutSecs) * time.Second,
		TurnDeadline:         time.Duration(raw.TurnDeadlineSecs) * time.Second,
		PlanDeadline:         time.Duration(raw.PlanDeadlineSecs) * time.Second,
		SyncRecentUserWindow: time.Duration(raw.SyncWindowHours) * time.Hour,
	}, nil
}
