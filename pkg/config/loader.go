package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, WISSEN_CONFIG env, ./config.yaml, /etc/wissen/config.yaml)
//  3. Environment variable overrides
//  4. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. WISSEN_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/wissen/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check WISSEN_CONFIG env var.
	if envPath := os.Getenv("WISSEN_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/wissen/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps WISSEN_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WISSEN_QDRANT_URL"); v != "" {
		cfg.Qdrant.URL = v
	}
	if v := os.Getenv("WISSEN_COLLECTION"); v != "" {
		cfg.Qdrant.Collection = v
	}
	if v := os.Getenv("WISSEN_VECTOR_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Qdrant.VectorSize = size
		}
	}
	if v := os.Getenv("WISSEN_EMBEDDING_URL"); v != "" {
		cfg.Embedding.URL = v
	}
	if v := os.Getenv("WISSEN_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("WISSEN_EMBEDDING_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Embedding.Timeout = d
		}
	}
	if v := os.Getenv("WISSEN_CHUNK_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.Size = size
		}
	}
	if v := os.Getenv("WISSEN_CHUNK_OVERLAP"); v != "" {
		if overlap, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.Overlap = overlap
		}
	}
	if v := os.Getenv("WISSEN_INGEST_ROOT"); v != "" {
		cfg.Ingest.Root = v
	}
	if v := os.Getenv("WISSEN_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Search.TopK = k
		}
	}
	if v := os.Getenv("WISSEN_SCORE_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Search.ScoreThreshold = float32(threshold)
		}
	}
	if v := os.Getenv("WISSEN_METRICS_ADDR"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = v
	}
}
