package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors config/config.yaml. Durations are kept as strings and parsed
// on use so an empty value falls back to the caller's default.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL  string `yaml:"ttl"`
		File string `yaml:"file"`
	} `yaml:"questions"`
	Playback struct {
		ArmDelay string `yaml:"armDelay"`
		IdleTTL  string `yaml:"idleTTL"`
	} `yaml:"playback"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ArmDelay is the pause between arming a question and presenting it.
func (c Config) ArmDelay() time.Duration {
	return TTLDuration(c.Playback.ArmDelay, 0)
}

// IdleTTL bounds how long an abandoned playback keeps its liveness key.
// playback.idleTTL wins over redis.ttl.
func (c Config) IdleTTL() time.Duration {
	return TTLDuration(c.Playback.IdleTTL, TTLDuration(c.Redis.TTL, 2*time.Hour))
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
