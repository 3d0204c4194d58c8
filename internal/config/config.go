// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ClassifierConfig holds credentials for the classification service.
type ClassifierConfig struct {
	URL          string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Config holds all configuration for the triage service.
type Config struct {
	Classifier ClassifierConfig

	// Extraction sidecar
	TextractURL     string
	ExtractWorkers  int
	SlowCallTimeout time.Duration

	// Dedup history: "redis", "postgres" or "memory"
	DedupBackend string
	DatabaseURL  string

	// Redis
	RedisURL      string
	WorkflowQueue string

	// Server
	Port           int
	MaxUploadBytes int64
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Classifier struct {
		URL          string `yaml:"url"`
		TokenURL     string `yaml:"token_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"classifier"`
	Extraction struct {
		SidecarURL      string `yaml:"sidecar_url"`
		Workers         int    `yaml:"workers"`
		SlowCallTimeout string `yaml:"slow_call_timeout"`
	} `yaml:"extraction"`
	Dedup struct {
		Backend     string `yaml:"backend"`
		DatabaseURL string `yaml:"database_url"`
	} `yaml:"dedup"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Workflow string `yaml:"workflow"`
		} `yaml:"queues"`
	} `yaml:"redis"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		Classifier: ClassifierConfig{
			URL:          firstNonEmpty(raw.Classifier.URL, envOrDefault("CLASSIFIER_URL", "")),
			TokenURL:     firstNonEmpty(raw.Classifier.TokenURL, envOrDefault("CLASSIFIER_TOKEN_URL", "")),
			ClientID:     firstNonEmpty(raw.Classifier.ClientID, envOrDefault("CLASSIFIER_CLIENT_ID", "")),
			ClientSecret: firstNonEmpty(raw.Classifier.ClientSecret, envOrDefault("CLASSIFIER_CLIENT_SECRET", "")),
		},
		TextractURL:     firstNonEmpty(raw.Extraction.SidecarURL, envOrDefault("TEXTRACT_URL", "http://localhost:9090")),
		ExtractWorkers:  raw.Extraction.Workers,
		SlowCallTimeout: parseDurationOr(raw.Extraction.SlowCallTimeout, 2*time.Minute),
		DedupBackend:    firstNonEmpty(raw.Dedup.Backend, envOrDefault("DEDUP_BACKEND", "redis")),
		DatabaseURL:     firstNonEmpty(raw.Dedup.DatabaseURL, envOrDefault("DATABASE_URL", "")),
		RedisURL:        firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		WorkflowQueue:   firstNonEmpty(raw.Redis.Queues.Workflow, envOrDefault("WORKFLOW_QUEUE", "workflow")),
		Port:            envOrDefaultInt("PORT", 8080),
		MaxUploadBytes:  int64(envOrDefaultInt("MAX_UPLOAD_BYTES", 25<<20)),
	}

	if cfg.ExtractWorkers <= 0 {
		cfg.ExtractWorkers = envOrDefaultInt("EXTRACT_WORKERS", 4)
	}

	if cfg.Classifier.URL == "" {
		return nil, fmt.Errorf("classifier URL is required: set classifier.url or CLASSIFIER_URL")
	}

	switch cfg.DedupBackend {
	case "redis", "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("dedup backend %q needs dedup.database_url or DATABASE_URL", cfg.DedupBackend)
		}
	default:
		return nil, fmt.Errorf("unknown dedup backend %q", cfg.DedupBackend)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func parseDurationOr(v string, fallback time.Duration) time.Duration {
	if v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
