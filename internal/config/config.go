package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Backend names accepted by BiometricConfig.Backend and IdentityConfig.Backend.
const (
	BackendRekognition = "rekognition"
	BackendLocal       = "local"
	BackendMemory      = "memory"
	BackendDynamo      = "dynamo"
	BackendPostgres    = "postgres"
)

type Config struct {
	Biometric BiometricConfig
	Identity  IdentityConfig
	Storage   StorageConfig
	Embedding EmbeddingConfig
	Database  DatabaseConfig
	Defaults  DefaultsConfig
}

type BiometricConfig struct {
	Backend        string  // rekognition (default), local, or memory
	CollectionID   string  // Rekognition collection holding enrolled faces
	MatchThreshold float64 // default similarity threshold for identification (0-100)
}

type IdentityConfig struct {
	Backend string // dynamo (default), postgres, or memory
	Table   string // DynamoDB table keyed by faceId
}

type StorageConfig struct {
	Bucket string // S3 bucket where image references resolve
	Region string
}

type EmbeddingConfig struct {
	URL string // embedding service for the local biometric backend
	Dim int    // defaults to 512
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL for the postgres identity backend
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// DefaultsConfig holds tunables shipped with the binary (defaults.yaml).
type DefaultsConfig struct {
	Limits struct {
		MatchThreshold         float64 `yaml:"match_threshold"`
		MaxImagesPerEnrollment int     `yaml:"max_images_per_enrollment"`
		MaxBodyBytes           int64   `yaml:"max_body_bytes"`
	} `yaml:"limits"`
	Timeouts struct {
		RequestSeconds  int `yaml:"request_seconds"`
		ShutdownSeconds int `yaml:"shutdown_seconds"`
	} `yaml:"timeouts"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envOr reads an environment variable, falling back to a default.
func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file, so this can only happen on a broken build.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Biometric: BiometricConfig{
			Backend:        envOr("BIOMETRIC_BACKEND", BackendRekognition),
			CollectionID:   os.Getenv("REKOGNITIONCOLLECTION"),
			MatchThreshold: envFloat("REKOGNITIONFACEMATCHTHRESHOLD", defaults.Limits.MatchThreshold),
		},
		Identity: IdentityConfig{
			Backend: envOr("IDENTITY_BACKEND", BackendDynamo),
			Table:   os.Getenv("DYNAMODBTABLENAME"),
		},
		Storage: StorageConfig{
			Bucket: os.Getenv("BUCKETNAME"),
			Region: os.Getenv("AWS_REGION"),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", 512),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Defaults: defaults,
	}
}
