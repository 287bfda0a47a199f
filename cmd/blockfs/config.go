package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "BLOCKFS"
	appName      = "blockfs"

	defaultImage    = "blockfs.img"
	defaultCapacity = 16 * 1024 * 1024
)

type Config struct {
	Image         string `envconfig:"BLOCKFS_IMAGE"          yaml:"image"`
	CapacityBytes uint64 `envconfig:"BLOCKFS_CAPACITY_BYTES" yaml:"capacityBytes"`
	LogLevel      string `envconfig:"BLOCKFS_LOG_LEVEL"      yaml:"logLevel"`
}

// LoadConfig layers the configuration: the yaml config file (if present),
// then `BLOCKFS_*` environment variables, then built-in defaults for
// whatever remains unset. Command line flags are applied on top by main.
func LoadConfig() (*Config, error) {
	configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = filepath.Join(
			os.Getenv("HOME"),
			".config",
			appName+".yaml",
		)
	}

	var c Config
	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file: %w", err)
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	if c.Image == "" {
		c.Image = defaultImage
	}
	if c.CapacityBytes == 0 {
		c.CapacityBytes = defaultCapacity
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return &c, nil
}
