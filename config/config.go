// Package config loads run configuration from the environment (and an
// optional .env file). CLI flags override the loaded values in cmd.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Sim     SimConfig
	Journal JournalConfig
	Outbox  OutboxConfig
	Kafka   KafkaConfig
	Logging LoggingConfig
}

// SimConfig parameterizes the simulation run.
type SimConfig struct {
	Symbol    string
	Duration  float64
	InitMid   int64
	NumAgents int
	Seed      int64
	OutputDir string

	HawkesMu    float64
	HawkesAlpha float64
	HawkesBeta  float64

	SigmaPrice      float64
	MarketOrderProb float64
	MeanSize        float64
	SigmaSize       float64
}

// JournalConfig controls the request journal.
type JournalConfig struct {
	Enabled     bool
	Dir         string
	SegmentSize int64
}

// OutboxConfig controls the pebble trade outbox.
type OutboxConfig struct {
	Enabled bool
	Dir     string
}

// KafkaConfig controls the live feed sink and the outbox broadcaster.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	Topic         string
	DrainInterval time.Duration
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. A missing .env file
// is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Sim: SimConfig{
			Symbol:          getEnvString("MINEX_SYMBOL", "AAPL"),
			Duration:        getEnvFloat("MINEX_DURATION", 3600.0),
			InitMid:         getEnvInt64("MINEX_INIT_MID", 15000),
			NumAgents:       getEnvInt("MINEX_NUM_AGENTS", 10),
			Seed:            getEnvInt64("MINEX_SEED", 42),
			OutputDir:       getEnvString("MINEX_OUTPUT_DIR", "output"),
			HawkesMu:        getEnvFloat("MINEX_HAWKES_MU", 50.0),
			HawkesAlpha:     getEnvFloat("MINEX_HAWKES_ALPHA", 35.0),
			HawkesBeta:      getEnvFloat("MINEX_HAWKES_BETA", 50.0),
			SigmaPrice:      getEnvFloat("MINEX_SIGMA_PRICE", 8.0),
			MarketOrderProb: getEnvFloat("MINEX_MARKET_ORDER_PROB", 0.12),
			MeanSize:        getEnvFloat("MINEX_MEAN_SIZE", 200.0),
			SigmaSize:       getEnvFloat("MINEX_SIGMA_SIZE", 0.7),
		},
		Journal: JournalConfig{
			Enabled:     getEnvBool("MINEX_JOURNAL_ENABLED", false),
			Dir:         getEnvString("MINEX_JOURNAL_DIR", "journal"),
			SegmentSize: getEnvInt64("MINEX_JOURNAL_SEGMENT_SIZE", 2*1024*1024),
		},
		Outbox: OutboxConfig{
			Enabled: getEnvBool("MINEX_OUTBOX_ENABLED", false),
			Dir:     getEnvString("MINEX_OUTBOX_DIR", "outbox"),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("MINEX_KAFKA_ENABLED", false),
			Brokers:       getEnvList("MINEX_KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:         getEnvString("MINEX_KAFKA_TOPIC", "minex.trades"),
			DrainInterval: getEnvDuration("MINEX_KAFKA_DRAIN_INTERVAL", 250*time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("MINEX_LOG_LEVEL", "info"),
			Format: getEnvString("MINEX_LOG_FORMAT", "console"),
		},
	}

	return cfg, nil
}

// Validate rejects configurations the run cannot honor.
func (c *Config) Validate() error {
	if c.Sim.Duration <= 0 {
		return fmt.Errorf("invalid duration: %f", c.Sim.Duration)
	}
	if c.Sim.InitMid <= 0 {
		return fmt.Errorf("invalid initial mid: %d", c.Sim.InitMid)
	}
	if c.Sim.NumAgents <= 0 {
		return fmt.Errorf("invalid agent count: %d", c.Sim.NumAgents)
	}
	if c.Sim.Symbol == "" || len(c.Sim.Symbol) > 16 {
		return fmt.Errorf("invalid symbol: %q", c.Sim.Symbol)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled with no brokers")
	}
	if c.Kafka.Enabled && !c.Outbox.Enabled {
		return fmt.Errorf("kafka broadcaster requires the outbox")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
