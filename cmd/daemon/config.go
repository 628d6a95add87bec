package main

import (
	"fmt"

	"github.com/spf13/viper"
)

// DaemonConfig holds daemon-specific settings, read from DAEMON_* env vars.
type DaemonConfig struct {
	ConfigPath     string `mapstructure:"config_path"`
	ScheduleHour   int    `mapstructure:"schedule_hour"`
	ScheduleMinute int    `mapstructure:"schedule_minute"`
	Timezone       string `mapstructure:"timezone"`
	StateFile      string `mapstructure:"state_file"`
	RunOnStartup   bool   `mapstructure:"run_on_startup"`
	Export         bool   `mapstructure:"export"`
}

func LoadDaemonConfig() (*DaemonConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("DAEMON")

	// Defaults run a quarter hour after the 16:00 New York close
	defaults := map[string]any{
		"config_path":     "/app/configs/default.yaml",
		"schedule_hour":   16,
		"schedule_minute": 15,
		"timezone":        "America/New_York",
		"state_file":      "/app/data/.daemon-state",
		"run_on_startup":  false,
		"export":          true,
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()

	var cfg DaemonConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling daemon config: %w", err)
	}

	if cfg.ScheduleHour < 0 || cfg.ScheduleHour > 23 || cfg.ScheduleMinute < 0 || cfg.ScheduleMinute > 59 {
		return nil, fmt.Errorf("invalid schedule %02d:%02d", cfg.ScheduleHour, cfg.ScheduleMinute)
	}
	return &cfg, nil
}
