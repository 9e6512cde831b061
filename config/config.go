/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package config loads platform configuration from the environment, with an
// optional YAML overlay for bucket, collection and cleaning settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Bucket names of the medallion layers.
const (
	BucketSources = "sources"
	BucketBronze  = "bronze"
	BucketSilver  = "silver"
	BucketGold    = "gold"
)

// Serving store collection names.
const (
	CollectionClients      = "clients"
	CollectionProducts     = "products"
	CollectionMonthlySales = "monthly_sales"
	CollectionMetadata     = "metadata"
)

// Sink backend identifiers.
const (
	SinkMongo    = "mongo"
	SinkDynamoDB = "dynamodb"
)

// ObjectStore holds S3-compatible object storage settings (MinIO by default).
type ObjectStore struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
}

// Mongo holds document store connection settings.
type Mongo struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// URI renders the mongodb connection string.
func (m Mongo) URI() string {
	return fmt.Sprintf("mongodb://%s:%s@%s:%d", m.Username, m.Password, m.Host, m.Port)
}

// DynamoDB holds settings for the optional DynamoDB publish sink.
type DynamoDB struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
}

// API holds HTTP server settings.
type API struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr renders the listen address.
func (a API) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Buckets names the four medallion buckets. Overridable via YAML.
type Buckets struct {
	Sources string `yaml:"sources"`
	Bronze  string `yaml:"bronze"`
	Silver  string `yaml:"silver"`
	Gold    string `yaml:"gold"`
}

// Cleaning holds tunable thresholds for the silver stage.
type Cleaning struct {
	// IQRMultiplier is the factor applied to the interquartile range when
	// trimming amount outliers.
	IQRMultiplier float64 `yaml:"iqr_multiplier"`
	// MaxDataLossPct aborts the stage when a cleaning pass removes more than
	// this percentage of rows. Zero disables the guard.
	MaxDataLossPct float64 `yaml:"max_data_loss_pct"`
}

// Generate holds synthetic data volumes.
type Generate struct {
	Clients   int   `yaml:"clients"`
	Purchases int   `yaml:"purchases"`
	Seed      int64 `yaml:"seed"`
}

// Config is the full platform configuration.
type Config struct {
	ObjectStore ObjectStore `yaml:"object_store"`
	Mongo       Mongo       `yaml:"mongo"`
	DynamoDB    DynamoDB    `yaml:"dynamodb"`
	API         API         `yaml:"api"`
	Buckets     Buckets     `yaml:"buckets"`
	Cleaning    Cleaning    `yaml:"cleaning"`
	Generate    Generate    `yaml:"generate"`
	// Sink selects the publish backend: "mongo" (default) or "dynamodb".
	Sink string `yaml:"sink"`
}

// Default returns the configuration with all defaults applied, matching the
// documented local stack (MinIO on :9000, MongoDB on :27017, API on :8000).
func Default() Config {
	return Config{
		ObjectStore: ObjectStore{
			Endpoint:  "localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Region:    "us-east-1",
			Secure:    false,
		},
		Mongo: Mongo{
			Host:     "localhost",
			Port:     27017,
			Username: "admin",
			Password: "admin",
			Database: "analytics",
		},
		DynamoDB: DynamoDB{
			Region: "us-east-1",
		},
		API: API{
			Host: "localhost",
			Port: 8000,
		},
		Buckets: Buckets{
			Sources: BucketSources,
			Bronze:  BucketBronze,
			Silver:  BucketSilver,
			Gold:    BucketGold,
		},
		Cleaning: Cleaning{
			IQRMultiplier: 3,
		},
		Generate: Generate{
			Clients:   1500,
			Purchases: 100000,
			Seed:      42,
		},
		Sink: SinkMongo,
	}
}

// Load builds the configuration from a .env file (when present), process
// environment variables, and an optional YAML overlay named by MEDALLION_CONFIG.
// Environment variables win over defaults; the YAML overlay wins over both.
func Load() (Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := Default()

	cfg.ObjectStore.Endpoint = getEnv("MINIO_ENDPOINT", cfg.ObjectStore.Endpoint)
	cfg.ObjectStore.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.ObjectStore.AccessKey)
	cfg.ObjectStore.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.ObjectStore.SecretKey)
	cfg.ObjectStore.Region = getEnv("MINIO_REGION", cfg.ObjectStore.Region)
	cfg.ObjectStore.Secure = getEnvBool("MINIO_SECURE", cfg.ObjectStore.Secure)

	cfg.Mongo.Host = getEnv("MONGODB_HOST", cfg.Mongo.Host)
	cfg.Mongo.Port = getEnvInt("MONGODB_PORT", cfg.Mongo.Port)
	cfg.Mongo.Username = getEnv("MONGODB_USERNAME", cfg.Mongo.Username)
	cfg.Mongo.Password = getEnv("MONGODB_PASSWORD", cfg.Mongo.Password)
	cfg.Mongo.Database = getEnv("MONGODB_DATABASE", cfg.Mongo.Database)

	cfg.DynamoDB.AccessKey = getEnv("AWS_ACCESS_KEY", cfg.DynamoDB.AccessKey)
	cfg.DynamoDB.SecretKey = getEnv("AWS_SECRET_KEY", cfg.DynamoDB.SecretKey)
	cfg.DynamoDB.Region = getEnv("AWS_REGION", cfg.DynamoDB.Region)
	cfg.DynamoDB.Table = getEnv("AWS_DDB_TABLE", cfg.DynamoDB.Table)

	cfg.API.Host = getEnv("API_HOST", cfg.API.Host)
	cfg.API.Port = getEnvInt("API_PORT", cfg.API.Port)

	cfg.Sink = getEnv("MEDALLION_SINK", cfg.Sink)

	if path := os.Getenv("MEDALLION_CONFIG"); path != "" {
		if err := cfg.applyOverlay(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyOverlay merges a YAML file on top of the current configuration.
func (c *Config) applyOverlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config overlay %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config overlay %s: %w", path, err)
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Sink {
	case SinkMongo:
	case SinkDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("sink %q requires AWS_DDB_TABLE", c.Sink)
		}
	default:
		return fmt.Errorf("unknown sink backend %q", c.Sink)
	}
	if c.Generate.Clients <= 0 || c.Generate.Purchases <= 0 {
		return fmt.Errorf("generate volumes must be positive: clients=%d purchases=%d", c.Generate.Clients, c.Generate.Purchases)
	}
	if c.Cleaning.IQRMultiplier <= 0 {
		return fmt.Errorf("cleaning iqr_multiplier must be positive, got %v", c.Cleaning.IQRMultiplier)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api port out of range: %d", c.API.Port)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true")
}
