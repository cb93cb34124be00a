package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Storage drivers understood by [StorageConfig.Driver].
const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageGCS   = "gcs"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Upload   UploadConfig   `toml:"upload"`
	Player   PlayerConfig   `toml:"player"`
	Server   ServerConfig   `toml:"server"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StorageConfig selects and configures the blob store driver.
type StorageConfig struct {
	Driver        string      `toml:"driver"`
	PublicBaseURL string      `toml:"public_base_url"`
	Local         LocalConfig `toml:"local"`
	Minio         MinioConfig `toml:"minio"`
	GCS           GCSConfig   `toml:"gcs"`
}

// LocalConfig stores blobs below a directory on disk.
type LocalConfig struct {
	Root string `toml:"root"`
}

// MinioConfig contains S3-compatible endpoint credentials.
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

// GCSConfig contains Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string `toml:"bucket"`
	CredentialsFile string `toml:"credentials_file"`
	EmulatorHost    string `toml:"emulator_host"`
}

// UploadConfig contains limits and policies for the upload pipelines.
type UploadConfig struct {
	MaxTracks            int     `toml:"max_tracks"`
	MaxVideoBytes        int64   `toml:"max_video_bytes"`
	MaxTitleLength       int     `toml:"max_title_length"`
	MaxDescriptionLength int     `toml:"max_description_length"`
	CleanupOnFailure     bool    `toml:"cleanup_on_failure"`
	ProgressRate         float64 `toml:"progress_rate"`
}

// PlayerConfig contains terminal player settings.
type PlayerConfig struct {
	Volume      float64 `toml:"volume"`
	FFPlayPath  string  `toml:"ffplay_path"`
	FFProbePath string  `toml:"ffprobe_path"`
	TickMS      int     `toml:"tick_ms"`
}

// Tick returns the progress polling interval, defaulting to 250ms.
func (p PlayerConfig) Tick() time.Duration {
	if p.TickMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(p.TickMS) * time.Millisecond
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [net/http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageLocal, StorageMinio, StorageGCS:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Player.Volume < 0 || c.Player.Volume > 1 {
		return fmt.Errorf("%w: player volume must be within [0, 1], got %v", ErrInvalidConfig, c.Player.Volume)
	}

	if c.Upload.MaxTracks < 1 {
		return fmt.Errorf("%w: upload.max_tracks must be positive", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
