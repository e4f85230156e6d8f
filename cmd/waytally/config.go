package main

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// appConfig holds process-level configuration. Values come from
// waytally.yaml if present, overridden by environment variables.
type appConfig struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// Table is the DynamoDB table holding way counters.
	Table string `yaml:"table"`

	// MaxValue is the inclusive counter ceiling.
	MaxValue int64 `yaml:"maxValue"`

	// Region is the AWS region.
	Region string `yaml:"region"`

	// DynamoEndpoint overrides the DynamoDB endpoint, e.g.
	// http://localhost:8000 for DynamoDB Local. When set, static dummy
	// credentials are used; the code path is otherwise identical to the
	// managed service.
	DynamoEndpoint string `yaml:"dynamoEndpoint"`

	// WaysFile is the reference dataset seeded at startup.
	WaysFile string `yaml:"waysFile"`

	// LocationsFile backs the location endpoints.
	LocationsFile string `yaml:"locationsFile"`

	// StaticDir is served at /. Empty disables static serving.
	StaticDir string `yaml:"staticDir"`
}

const configFile = "waytally.yaml"

func loadConfig() appConfig {
	cfg := appConfig{
		Addr:          ":3000",
		Region:        "us-east-1",
		WaysFile:      "ways.json",
		LocationsFile: "locations.json",
		StaticDir:     "./public",
	}

	if data, err := os.ReadFile(configFile); err == nil {
		_ = yaml.Unmarshal(data, &cfg)
	}

	envString(&cfg.Addr, "WAYTALLY_ADDR")
	envString(&cfg.Table, "WAYTALLY_TABLE")
	envInt64(&cfg.MaxValue, "WAYTALLY_MAX_VALUE")
	envString(&cfg.Region, "WAYTALLY_REGION")
	envString(&cfg.DynamoEndpoint, "WAYTALLY_DYNAMO_ENDPOINT")
	envString(&cfg.WaysFile, "WAYTALLY_WAYS_FILE")
	envString(&cfg.LocationsFile, "WAYTALLY_LOCATIONS_FILE")
	envString(&cfg.StaticDir, "WAYTALLY_STATIC_DIR")

	return cfg
}

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt64(dst *int64, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
