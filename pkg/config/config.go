// Package config provides configuration handling for integrator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. INTEGRATOR_SERVER_PORT
const EnvPrefix = "INTEGRATOR"

// Config represents the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage" mapstructure:"storage"`

	// Auth configuration
	Auth AuthConfig `json:"auth" yaml:"auth" mapstructure:"auth"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`

	// Client configuration used by the CLI
	Client ClientConfig `json:"client" yaml:"client" mapstructure:"client"`

	// Drafts configuration
	Drafts DraftsConfig `json:"drafts" yaml:"drafts" mapstructure:"drafts"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Host to bind to
	Host string `json:"host" yaml:"host" mapstructure:"host"`

	// Port to listen on
	Port int `json:"port" yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`

	// AllowedOrigins lists the origins allowed by CORS; empty allows all
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	// TLS configuration
	TLS TLSConfig `json:"tls" yaml:"tls" mapstructure:"tls"`
}

// TLSConfig contains TLS settings
type TLSConfig struct {
	// Enabled indicates whether TLS is enabled
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// CertFile is the path to the certificate file
	CertFile string `json:"cert_file" yaml:"cert_file" mapstructure:"cert_file" validate:"required_if=Enabled true"`

	// KeyFile is the path to the key file
	KeyFile string `json:"key_file" yaml:"key_file" mapstructure:"key_file" validate:"required_if=Enabled true"`
}

// StorageConfig contains storage settings
type StorageConfig struct {
	// Type of storage to use
	Type string `json:"type" yaml:"type" mapstructure:"type" validate:"oneof=memory file redis postgresql dynamodb"`

	// File configuration
	File FileConfig `json:"file" yaml:"file" mapstructure:"file"`

	// Redis configuration
	Redis RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`

	// DynamoDB configuration
	DynamoDB DynamoDBConfig `json:"dynamodb" yaml:"dynamodb" mapstructure:"dynamodb"`

	// PostgreSQL configuration
	Postgres PostgresConfig `json:"postgres" yaml:"postgres" mapstructure:"postgres"`
}

// FileConfig contains file storage settings
type FileConfig struct {
	// Directory holds the stored documents
	Directory string `json:"directory" yaml:"directory" mapstructure:"directory"`
}

// RedisConfig contains Redis settings
type RedisConfig struct {
	// Addr is the host:port of the server
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Password is the server password
	Password string `json:"password" yaml:"password" mapstructure:"password"`

	// DB is the database number
	DB int `json:"db" yaml:"db" mapstructure:"db"`

	// KeyPrefix prefixes every key
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
}

// DynamoDBConfig contains DynamoDB settings
type DynamoDBConfig struct {
	// Region is the AWS region
	Region string `json:"region" yaml:"region" mapstructure:"region"`

	// Endpoint is the DynamoDB endpoint (for local development)
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// TablePrefix is the prefix for all tables
	TablePrefix string `json:"table_prefix" yaml:"table_prefix" mapstructure:"table_prefix"`
}

// PostgresConfig contains PostgreSQL settings
type PostgresConfig struct {
	// Host is the database host
	Host string `json:"host" yaml:"host" mapstructure:"host"`

	// Port is the database port
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	// Database is the database name
	Database string `json:"database" yaml:"database" mapstructure:"database"`

	// User is the database user
	User string `json:"user" yaml:"user" mapstructure:"user"`

	// Password is the database password
	Password string `json:"password" yaml:"password" mapstructure:"password"`

	// SSLMode is the SSL mode
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	// Enabled requires a bearer token on every API route except health
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// JWTSecret is the secret for signing JWT tokens
	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret" mapstructure:"jwt_secret" validate:"required_if=Enabled true"`

	// TokenExpiration is the token expiration time in hours
	TokenExpiration int `json:"token_expiration" yaml:"token_expiration" mapstructure:"token_expiration" validate:"min=0"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	// Level is the logging level
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the log format
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=json console"`

	// Output is the log output
	Output string `json:"output" yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr file"`

	// FilePath is the path to the log file
	FilePath string `json:"file_path" yaml:"file_path" mapstructure:"file_path" validate:"required_if=Output file"`
}

// ClientConfig contains settings for talking to a server
type ClientConfig struct {
	// ServerURL is the server root
	ServerURL string `json:"server_url" yaml:"server_url" mapstructure:"server_url" validate:"omitempty,url"`

	// Token is the bearer token
	Token string `json:"token" yaml:"token" mapstructure:"token"`

	// Headers are sent with every request
	Headers map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`

	// Timeout bounds each request
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// DraftStore selects where drafts live: "file" (local) or "remote" (server)
	DraftStore string `json:"draft_store" yaml:"draft_store" mapstructure:"draft_store" validate:"oneof=file remote memory"`

	// DraftDirectory is the local draft directory
	DraftDirectory string `json:"draft_directory" yaml:"draft_directory" mapstructure:"draft_directory"`
}

// DraftsConfig contains server-side draft retention settings
type DraftsConfig struct {
	// TTL is how long an untouched draft is kept; zero keeps drafts forever
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// PruneSchedule is the cron schedule of the draft janitor
	PruneSchedule string `json:"prune_schedule" yaml:"prune_schedule" mapstructure:"prune_schedule"`
}

var validate = validator.New()

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
			TLS: TLSConfig{
				Enabled: false,
			},
		},
		Storage: StorageConfig{
			Type: "memory",
			File: FileConfig{
				Directory: "./data",
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "integrator:",
			},
			DynamoDB: DynamoDBConfig{
				Region:      "us-west-2",
				TablePrefix: "integrator_",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "integrator",
				User:     "integrator",
				SSLMode:  "disable",
			},
		},
		Auth: AuthConfig{
			TokenExpiration: 24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Client: ClientConfig{
			ServerURL:      "http://localhost:8080",
			Headers:        map[string]string{},
			Timeout:        30 * time.Second,
			DraftStore:     "file",
			DraftDirectory: defaultDraftDirectory(),
		},
		Drafts: DraftsConfig{
			TTL:           7 * 24 * time.Hour,
			PruneSchedule: "@hourly",
		},
	}
}

func defaultDraftDirectory() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".integrator", "drafts")
	}
	return filepath.Join(dir, "integrator", "drafts")
}

// setDefaults registers every key of the default configuration so that
// environment overrides apply to keys absent from the config file
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var defaults map[string]interface{}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	for key, value := range flatten("", defaults) {
		v.SetDefault(key, value)
	}
	return nil
}

func flatten(prefix string, in map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok && len(nested) > 0 {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// Load reads the configuration. Priority (highest to lowest):
// 1. Environment variables with the INTEGRATOR_ prefix (a .env file is loaded first)
// 2. The config file at path, when path is not empty
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	return Load(path)
}

// SaveConfig saves the configuration to a file; the extension selects YAML
// or JSON
func SaveConfig(config *Config, path string) error {
	// Create the directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write the file
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
