// Package cfg loads service configuration from a YAML file with environment
// overrides, or from the environment alone when no file is configured.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the resolved service configuration.
type Settings struct {
	ListenPort         int
	AdminKey           string
	PostgresDSN        string
	DataPath           string
	TrainingRowLimit   int
	MinTrainingSamples int
	MaxBatchSize       int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	Server struct {
		Port         int    `yaml:"port"`
		ReadTimeout  string `yaml:"readTimeout"`
		WriteTimeout string `yaml:"writeTimeout"`
	} `yaml:"server"`

	Training struct {
		PostgresDSN string `yaml:"postgresDSN"`
		RowLimit    int    `yaml:"rowLimit"`
		MinSamples  int    `yaml:"minSamples"`
	} `yaml:"training"`

	Inference struct {
		MaxBatchSize int `yaml:"maxBatchSize"`
	} `yaml:"inference"`

	System struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"system"`
}

// Defaults.
const (
	DefaultListenPort         = 8001
	DefaultTrainingRowLimit   = 1000
	DefaultMinTrainingSamples = 100
	DefaultMaxBatchSize       = 100
	DefaultReadTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 30 * time.Second
)

// Load resolves settings from CONFIG_FILE when set, otherwise from
// environment variables alone. Environment values always win over file
// values. The admin key is only read from the environment so it never lands
// in a config file on disk.
func Load() (Settings, error) {
	var config ConfigFile
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	settings := Settings{
		ListenPort:         intFromEnvOrConfig("LISTEN_PORT", config.Server.Port, DefaultListenPort),
		AdminKey:           os.Getenv("ADMIN_API_KEY"),
		PostgresDSN:        envOrDefault("POSTGRES_DSN", config.Training.PostgresDSN),
		DataPath:           envOrDefault("DATA_PATH", config.System.DataPath),
		TrainingRowLimit:   intFromEnvOrConfig("TRAINING_ROW_LIMIT", config.Training.RowLimit, DefaultTrainingRowLimit),
		MinTrainingSamples: intFromEnvOrConfig("MIN_TRAINING_SAMPLES", config.Training.MinSamples, DefaultMinTrainingSamples),
		MaxBatchSize:       intFromEnvOrConfig("MAX_BATCH_SIZE", config.Inference.MaxBatchSize, DefaultMaxBatchSize),
		ReadTimeout:        durationFromEnvOrConfig("READ_TIMEOUT", config.Server.ReadTimeout, DefaultReadTimeout),
		WriteTimeout:       durationFromEnvOrConfig("WRITE_TIMEOUT", config.Server.WriteTimeout, DefaultWriteTimeout),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func intFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func durationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if configValue != "" {
		if d, err := time.ParseDuration(configValue); err == nil {
			return d
		}
	}
	return defaultValue
}

func validateSettings(s *Settings) error {
	if s.ListenPort < 1024 || s.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", s.ListenPort)
	}
	if s.TrainingRowLimit <= 0 || s.TrainingRowLimit > 100000 {
		return fmt.Errorf("training row limit must be between 1 and 100000, got %d", s.TrainingRowLimit)
	}
	if s.MinTrainingSamples < 2 {
		return fmt.Errorf("minimum training samples must be at least 2, got %d", s.MinTrainingSamples)
	}
	if s.MinTrainingSamples > s.TrainingRowLimit {
		return fmt.Errorf("minimum training samples (%d) exceeds row limit (%d)", s.MinTrainingSamples, s.TrainingRowLimit)
	}
	if s.MaxBatchSize <= 0 || s.MaxBatchSize > 1000 {
		return fmt.Errorf("max batch size must be between 1 and 1000, got %d", s.MaxBatchSize)
	}
	if s.ReadTimeout < time.Second || s.ReadTimeout > time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 1m, got %v", s.ReadTimeout)
	}
	if s.WriteTimeout < time.Second || s.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 5m, got %v", s.WriteTimeout)
	}
	return nil
}
