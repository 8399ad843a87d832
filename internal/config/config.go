package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Blockchain BlockchainConfig `json:"blockchain"`
	Pricing    PricingConfig    `json:"pricing"`
	Storage    StorageConfig    `json:"storage"`
	Logging    LoggingConfig    `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"db_name"`
	SSLMode      string        `json:"ssl_mode"`
	MaxConns     int           `json:"max_connections"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
}

// BlockchainConfig configures the chain collaborator
type BlockchainConfig struct {
	Network     string        `json:"network"`      // e.g. "Aptos Testnet"
	Simulated   bool          `json:"simulated"`    // selected once at composition time
	CallTimeout time.Duration `json:"call_timeout"` // bound on deploy/mint/token calls
}

// PricingConfig configures the market price quote source
type PricingConfig struct {
	BinanceBaseURL  string        `json:"binance_base_url"`
	BaseCarbonPrice float64       `json:"base_carbon_price"` // USD per credit
	RequestTimeout  time.Duration `json:"request_timeout"`
	RefreshSchedule string        `json:"refresh_schedule"` // cron spec, e.g. "@every 30s"
}

// StorageConfig configures site-image object storage
type StorageConfig struct {
	Simulated bool   `json:"simulated"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"` // optional, for MinIO
	PathStyle bool   `json:"path_style"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "bluecarbon_registry",
			SSLMode: "disable",
		},
		Blockchain: BlockchainConfig{
			Network:     "Aptos Testnet",
			Simulated:   true,
			CallTimeout: 15 * time.Second,
		},
		Pricing: PricingConfig{
			BinanceBaseURL:  "https://api.binance.com/api/v3",
			BaseCarbonPrice: 45.0,
			RequestTimeout:  5 * time.Second,
			RefreshSchedule: "@every 30s",
		},
		Storage: StorageConfig{
			Simulated: true,
			Bucket:    "bluecarbon-site-images",
			Region:    "us-east-1",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if sim := os.Getenv("BLOCKCHAIN_SIMULATED"); sim != "" {
		config.Blockchain.Simulated = sim == "true"
	}
	if network := os.Getenv("BLOCKCHAIN_NETWORK"); network != "" {
		config.Blockchain.Network = network
	}
	if bucket := os.Getenv("STORAGE_S3_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
		config.Storage.Simulated = false
	}
	if region := os.Getenv("STORAGE_S3_REGION"); region != "" {
		config.Storage.Region = region
	}
	if endpoint := os.Getenv("STORAGE_S3_ENDPOINT"); endpoint != "" {
		config.Storage.Endpoint = endpoint
	}
	if base := os.Getenv("PRICING_BASE_PRICE"); base != "" {
		if p, err := strconv.ParseFloat(base, 64); err == nil {
			config.Pricing.BaseCarbonPrice = p
		}
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
