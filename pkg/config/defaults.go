// Package config provides centralized environment-driven defaults for the
// beacon binaries.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Println("Loading configuration overrides from .env file...")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Logging
	LogDirectory string

	// Collector Configuration
	CollectorProjectID    string
	CollectorProjectToken string
	CollectorKafkaBrokers []string
	CollectorKafkaTopic   string

	// Simulator Configuration
	SimulatorEndpoint   string
	SimulatorEventCount int
	SimulatorSeed       int
	SimulatorDebug      bool
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Logging
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")

	// Collector Configuration
	CollectorProjectID = getEnvString("COLLECTOR_PROJECT_ID", "dev-project")
	CollectorProjectToken = getEnvString("COLLECTOR_PROJECT_TOKEN", "dev-token")
	if brokers := getEnvString("COLLECTOR_KAFKA_BROKERS", ""); brokers != "" {
		CollectorKafkaBrokers = strings.Split(brokers, ",")
	}
	CollectorKafkaTopic = getEnvString("COLLECTOR_KAFKA_TOPIC", "beacon-events")

	// Simulator Configuration
	SimulatorEndpoint = getEnvString("SIMULATOR_ENDPOINT", "http://localhost:8080")
	SimulatorEventCount = getEnvInt("SIMULATOR_EVENT_COUNT", 25)
	SimulatorSeed = getEnvInt("SIMULATOR_SEED", 123)
	SimulatorDebug = getEnvBool("SIMULATOR_DEBUG", true)
}
