package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// SchemeWide is the generic logarithmic bin scheme.
	SchemeWide = "wide"
	// SchemeNearParity is the narrow scheme for assets whose normalized unit
	// clusters around 1.0.
	SchemeNearParity = "near_parity"
)

// DefaultDustThreshold is the minimum normalized amount retained in analysis
// when an asset does not override it.
const DefaultDustThreshold = 0.01

type Config struct {
	Optimisoor OptimisoorConfig `yaml:"optimisoor"`
	Assets     []AssetConfig    `yaml:"assets"`
	Registry   RegistryConfig   `yaml:"registry"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type OptimisoorConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// AssetConfig declares one tracked mint. The bin scheme is an explicit
// per-asset input rather than something inferred from the data.
type AssetConfig struct {
	ID            string  `yaml:"id"`
	Scheme        string  `yaml:"scheme"`
	DustThreshold float64 `yaml:"dust_threshold"`
}

// Dust returns the asset's dust threshold, falling back to the global default.
func (a AssetConfig) Dust() float64 {
	if a.DustThreshold > 0 {
		return a.DustThreshold
	}
	return DefaultDustThreshold
}

type RegistryConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Mode            string        `yaml:"mode"` // "pages" or "cursor"
	RPCURL          string        `yaml:"rpc_url"`
	PageSize        int           `yaml:"page_size"`
	InterPageDelay  time.Duration `yaml:"inter_page_delay"`
	InterAssetDelay time.Duration `yaml:"inter_asset_delay"`
	Timeout         time.Duration `yaml:"timeout"`
}

type MetadataConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PricingConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SnapshotConfig struct {
	DataDir         string        `yaml:"data_dir"`
	FiguresDir      string        `yaml:"figures_dir"`
	FreshnessWindow time.Duration `yaml:"freshness_window"`
	CycleInterval   time.Duration `yaml:"cycle_interval"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	DashboardName string `yaml:"dashboard_name"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Registry: RegistryConfig{
			Mode:            "pages",
			PageSize:        1000,
			InterPageDelay:  time.Second,
			InterAssetDelay: 10 * time.Second,
			Timeout:         30 * time.Second,
		},
		Snapshot: SnapshotConfig{
			DataDir:         "data",
			FiguresDir:      "figures",
			FreshnessWindow: 6 * time.Hour,
			CycleInterval:   24 * time.Hour,
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
	if v := os.Getenv("REGISTRY_RPC_URL"); v != "" {
		config.Registry.RPCURL = strings.TrimSpace(v)
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Optimisoor.Name == "" {
		return fmt.Errorf("optimisoor.name is required")
	}
	if cfg.Optimisoor.Version == "" {
		return fmt.Errorf("optimisoor.version is required")
	}

	if len(cfg.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	seen := make(map[string]struct{}, len(cfg.Assets))
	for i, asset := range cfg.Assets {
		if asset.ID == "" {
			return fmt.Errorf("assets[%d].id is required", i)
		}
		if _, dup := seen[asset.ID]; dup {
			return fmt.Errorf("assets[%d].id %q is duplicated", i, asset.ID)
		}
		seen[asset.ID] = struct{}{}
		switch asset.Scheme {
		case "", SchemeWide, SchemeNearParity:
		default:
			return fmt.Errorf("assets[%d].scheme %q must be %q or %q", i, asset.Scheme, SchemeWide, SchemeNearParity)
		}
		if asset.DustThreshold < 0 {
			return fmt.Errorf("assets[%d].dust_threshold must not be negative", i)
		}
	}

	switch cfg.Registry.Mode {
	case "pages":
		if cfg.Registry.BaseURL == "" {
			return fmt.Errorf("registry.base_url is required in pages mode")
		}
	case "cursor":
		if cfg.Registry.RPCURL == "" {
			return fmt.Errorf("registry.rpc_url is required in cursor mode")
		}
	default:
		return fmt.Errorf("registry.mode %q must be \"pages\" or \"cursor\"", cfg.Registry.Mode)
	}
	if cfg.Registry.PageSize <= 0 {
		return fmt.Errorf("registry.page_size must be greater than 0")
	}
	if cfg.Registry.InterPageDelay <= 0 {
		return fmt.Errorf("registry.inter_page_delay must be greater than 0")
	}
	if cfg.Registry.InterAssetDelay < 0 {
		return fmt.Errorf("registry.inter_asset_delay must not be negative")
	}

	if cfg.Metadata.BaseURL == "" {
		return fmt.Errorf("metadata.base_url is required")
	}
	if cfg.Pricing.Enabled && cfg.Pricing.BaseURL == "" {
		return fmt.Errorf("pricing.base_url is required when pricing is enabled")
	}

	if cfg.Snapshot.DataDir == "" {
		return fmt.Errorf("snapshot.data_dir is required")
	}
	if cfg.Snapshot.FreshnessWindow <= 0 {
		return fmt.Errorf("snapshot.freshness_window must be greater than 0")
	}
	if cfg.Snapshot.CycleInterval <= 0 {
		return fmt.Errorf("snapshot.cycle_interval must be greater than 0")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
