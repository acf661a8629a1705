package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/marlinquant/marlin/internal/logger"
)

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// EngineConfig represents batch engine configuration
type EngineConfig struct {
	ExecutionMode string `yaml:"execution_mode"` // auto, sequential, parallel
	Workers       int    `yaml:"workers"`        // 0 = one per CPU core
	L1CacheKB     int    `yaml:"l1_cache_kb"`
	L2CacheKB     int    `yaml:"l2_cache_kb"`
	L3CacheKB     int    `yaml:"l3_cache_kb"`
}

// APIConfig represents HTTP API behavior
type APIConfig struct {
	PricePrecision int32 `yaml:"price_precision"` // decimal places in responses
}

type Config struct {
	Port string

	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	API     APIConfig     `yaml:"api"`
}

type yamlConfig struct {
	Port    string        `yaml:"port"`
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	API     APIConfig     `yaml:"api"`
}

// LoadEnv pulls a .env file into the environment if one exists. Missing
// files are fine; explicit environment variables always win.
func LoadEnv() {
	if err := godotenv.Load(".env"); err == nil && logger.Info != nil {
		logger.Info.Printf("📄 .env loaded")
	}
}

// Load builds the configuration from defaults, an optional config.yaml, and
// environment variable overrides, in that order.
func Load() *Config {
	cfg := &Config{
		Port: "8080",
		Logging: LoggingConfig{
			LogLevel: "info",
			LogFile:  "marlin.log",
		},
		Engine: EngineConfig{
			ExecutionMode: "auto",
			Workers:       0,
			L1CacheKB:     32,
			L2CacheKB:     256,
			L3CacheKB:     8192,
		},
		API: APIConfig{
			PricePrecision: 6,
		},
	}

	if y := loadYAMLConfig("config.yaml"); y != nil {
		if y.Port != "" {
			cfg.Port = y.Port
		}
		if y.Logging.LogLevel != "" {
			cfg.Logging.LogLevel = y.Logging.LogLevel
		}
		if y.Logging.LogFile != "" {
			cfg.Logging.LogFile = y.Logging.LogFile
		}
		if y.Engine.ExecutionMode != "" {
			cfg.Engine.ExecutionMode = y.Engine.ExecutionMode
		}
		if y.Engine.Workers > 0 {
			cfg.Engine.Workers = y.Engine.Workers
		}
		if y.Engine.L1CacheKB > 0 {
			cfg.Engine.L1CacheKB = y.Engine.L1CacheKB
		}
		if y.Engine.L2CacheKB > 0 {
			cfg.Engine.L2CacheKB = y.Engine.L2CacheKB
		}
		if y.Engine.L3CacheKB > 0 {
			cfg.Engine.L3CacheKB = y.Engine.L3CacheKB
		}
		if y.API.PricePrecision > 0 {
			cfg.API.PricePrecision = y.API.PricePrecision
		}
	}

	cfg.Port = getEnv("MARLIN_PORT", cfg.Port)
	cfg.Logging.LogLevel = getEnv("MARLIN_LOG_LEVEL", cfg.Logging.LogLevel)
	cfg.Logging.LogFile = getEnv("MARLIN_LOG_FILE", cfg.Logging.LogFile)
	cfg.Engine.ExecutionMode = getEnv("MARLIN_EXECUTION_MODE", cfg.Engine.ExecutionMode)
	cfg.Engine.Workers = getEnvInt("MARLIN_WORKERS", cfg.Engine.Workers)

	return cfg
}

func loadYAMLConfig(path string) *yamlConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		if logger.Warn != nil {
			logger.Warn.Printf("⚠️ ignoring malformed %s: %v", path, err)
		}
		return nil
	}
	return &y
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
