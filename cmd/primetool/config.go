package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	magma "github.com/lavabit/magma-sub003"
	"github.com/lavabit/magma-sub003/internal/logger"
)

// FileConfig is the optional YAML configuration file.
type FileConfig struct {
	Log struct {
		Env   string `yaml:"env"`
		Level string `yaml:"level"`
	} `yaml:"log"`

	Stacie struct {
		Bonus   uint32 `yaml:"bonus"`
		Workers int    `yaml:"workers"`
	} `yaml:"stacie"`
}

// loadConfig reads path when it is set, then applies MAGMA_* environment
// overrides. envFile, when set, is loaded into the environment first.
func loadConfig(path, envFile string) (*FileConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	var c FileConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("MAGMA_LOG_ENV"); v != "" {
		c.Log.Env = v
	}
	if v := os.Getenv("MAGMA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MAGMA_STACIE_BONUS"); v != "" {
		bonus, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("MAGMA_STACIE_BONUS: %w", err)
		}
		c.Stacie.Bonus = uint32(bonus)
	}

	if c.Log.Env == "" {
		c.Log.Env = "dev"
	}
	if c.Stacie.Workers < 0 {
		return nil, fmt.Errorf("stacie.workers must not be negative, got %d", c.Stacie.Workers)
	}
	return &c, nil
}

func (c *FileConfig) engine() (*magma.Engine, error) {
	opts := []magma.Option{
		magma.WithLogger(logger.New(logger.Config{Env: c.Log.Env, Level: c.Log.Level})),
		magma.WithBonus(c.Stacie.Bonus),
	}
	if c.Stacie.Workers > 0 {
		opts = append(opts, magma.WithMaxConcurrentDerivations(c.Stacie.Workers))
	}
	return magma.New(opts...)
}
