// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// globalKeys are bound to PVEWARDEN_GLOBAL_* so they can be set from the
// environment even when the file has no global section.
var globalKeys = []string{
	"dest", "from", "transport", "smtp_addr", "nats_url", "nats_subject",
	"textfile_dir", "pushgateway_url", "node_name", "test",
}

type GlobalConfig struct {
	Dest           []string `mapstructure:"dest"`
	From           string   `mapstructure:"from"`
	Transport      string   `mapstructure:"transport"`
	SMTPAddr       string   `mapstructure:"smtp_addr"`
	NatsURL        string   `mapstructure:"nats_url"`
	NatsSubject    string   `mapstructure:"nats_subject"`
	TextfileDir    string   `mapstructure:"textfile_dir"`
	PushgatewayURL string   `mapstructure:"pushgateway_url"`
	NodeName       string   `mapstructure:"node_name"`
	Test           bool     `mapstructure:"test"`
}

type CheckConfig struct {
	Name     string                 `mapstructure:"name"`
	Type     string                 `mapstructure:"type"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type Config struct {
	Global GlobalConfig  `mapstructure:"global"`
	Checks []CheckConfig `mapstructure:"checks"`
}

// LoadConfig reads a YAML, TOML or JSON file. Environment variables prefixed
// with PVEWARDEN_ override global settings, e.g. PVEWARDEN_GLOBAL_SMTP_ADDR.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("pvewarden")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	for _, key := range globalKeys {
		if err := v.BindEnv("global." + key); err != nil {
			return nil, err
		}
	}
	v.SetDefault("global.transport", "smtp")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	for i, c := range config.Checks {
		if c.Name == "" {
			config.Checks[i].Name = c.Type
		}
		if _, ok := checkTypes[c.Type]; !ok {
			return nil, fmt.Errorf("check %q: unknown type %q", config.Checks[i].Name, c.Type)
		}
	}

	return &config, nil
}

func GetStringSetting(settings map[string]interface{}, key, defaultValue string) string {
	if value, ok := settings[key].(string); ok {
		return value
	}
	return defaultValue
}

func GetIntSetting(settings map[string]interface{}, key string, defaultValue int) int {
	switch value := settings[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return defaultValue
}

func GetBoolSetting(settings map[string]interface{}, key string, defaultValue bool) bool {
	if value, ok := settings[key].(bool); ok {
		return value
	}
	return defaultValue
}

// GetFloat64Setting also accepts integers, YAML decodes 80 as an int.
func GetFloat64Setting(settings map[string]interface{}, key string, defaultValue float64) float64 {
	switch value := settings[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case int64:
		return float64(value)
	}
	return defaultValue
}

// GetDurationSetting accepts Go durations ("90s", "1h") or plain seconds.
func GetDurationSetting(settings map[string]interface{}, key string, defaultValue time.Duration) time.Duration {
	switch value := settings[key].(type) {
	case string:
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	case int:
		return time.Duration(value) * time.Second
	}
	return defaultValue
}

func GetStringSliceSetting(settings map[string]interface{}, key string, defaultValue []string) []string {
	switch value := settings[key].(type) {
	case []interface{}:
		var result []string
		for _, v := range value {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case string:
		return []string{value}
	}
	return defaultValue
}
