package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"
)

// Config is the full picolog configuration. Values come from the JSON config
// file and can be overridden through the environment.
type Config struct {
	Discord Discord     `json:"discord"`
	Store   Store       `json:"store"`
	Objects ObjectStore `json:"objects"`
	Logs    Logs        `json:"logs"`
	Debug   bool        `json:"debug" env:"PICOLOG_DEBUG"`
}

type Discord struct {
	Token   string `json:"token"    env:"DISCORD_TOKEN"`
	Prefix  string `json:"prefix"   env:"PICOLOG_PREFIX"`
	OwnerID string `json:"owner_id" env:"PICOLOG_OWNER_ID"`
}

// Store configures the on-disk transactional key-value store.
type Store struct {
	Path string `json:"path" env:"PICOLOG_STORE_PATH"`
}

// ObjectStore configures the S3-compatible bucket attachments are copied to.
type ObjectStore struct {
	Endpoint  string `json:"endpoint"   env:"PICOLOG_S3_ENDPOINT"`
	Region    string `json:"region"     env:"PICOLOG_S3_REGION"`
	Bucket    string `json:"bucket"     env:"PICOLOG_S3_BUCKET"`
	AccessKey string `json:"access_key" env:"PICOLOG_S3_ACCESS_KEY"`
	SecretKey string `json:"secret_key" env:"PICOLOG_S3_SECRET_KEY"`
	Insecure  bool   `json:"insecure"   env:"PICOLOG_S3_INSECURE"`
}

// Logs configures the audit-log subsystem. Secret is the process-wide
// derivation key as a 64-character hex string; every attachment key and
// per-message encryption key is derived from it, so it is required whenever
// the logs command is registered.
type Logs struct {
	Secret       string `json:"secret"         env:"LOG_HASH_KEY"`
	FilesBaseURL string `json:"files_base_url" env:"PICOLOG_FILES_BASE_URL"`
}

// SecretKey decodes the configured hex secret and enforces its length.
func (l Logs) SecretKey() ([32]byte, error) {
	var key [32]byte

	if l.Secret == "" {
		return key, fmt.Errorf("log secret not configured (set LOG_HASH_KEY)")
	}
	raw, err := hex.DecodeString(l.Secret)
	if err != nil {
		return key, fmt.Errorf("decode log secret: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("log secret must be %d bytes, got %d", len(key), len(raw))
	}

	copy(key[:], raw)
	return key, nil
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Discord: Discord{
			Prefix: "rt.",
		},
		Store: Store{
			Path: filepath.Join(home, ".picolog", "store"),
		},
	}
}

// LoadConfig reads the JSON config at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks the fields every deployment needs before the gateway starts.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token not configured (set DISCORD_TOKEN)")
	}
	if c.Discord.Prefix == "" {
		return fmt.Errorf("command prefix must not be empty")
	}
	return nil
}
