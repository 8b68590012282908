package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `optimisoor:
  name: "TestApp"
  version: "1.0"
assets:
  - id: "jucy5XJ76pHVvtPZb5TKRcGQExkwit2P5s4vY8UzmpC"
    scheme: near_parity
  - id: "BonK1YhkXEGLZzwtcvRTip3gAL9nCeQD7ppZBLXhtTs"
    scheme: wide
    dust_threshold: 0.1
registry:
  base_url: "https://api.solana.fm"
metadata:
  base_url: "https://api.sanctum.so"
storage:
  s3:
    enabled: false
`
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Optimisoor.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Optimisoor.Name)
	}
	if len(cfg.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(cfg.Assets))
	}
	if cfg.Assets[0].Scheme != SchemeNearParity {
		t.Errorf("unexpected scheme: %s", cfg.Assets[0].Scheme)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Registry.PageSize != 1000 {
		t.Errorf("unexpected page size: %d", cfg.Registry.PageSize)
	}
	if cfg.Registry.InterPageDelay != time.Second {
		t.Errorf("unexpected inter-page delay: %v", cfg.Registry.InterPageDelay)
	}
	if cfg.Snapshot.FreshnessWindow != 6*time.Hour {
		t.Errorf("unexpected freshness window: %v", cfg.Snapshot.FreshnessWindow)
	}
	if cfg.Snapshot.CycleInterval != 24*time.Hour {
		t.Errorf("unexpected cycle interval: %v", cfg.Snapshot.CycleInterval)
	}
}

func TestAssetDustFallback(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got := cfg.Assets[0].Dust(); got != DefaultDustThreshold {
		t.Errorf("Dust() = %v, want default %v", got, DefaultDustThreshold)
	}
	if got := cfg.Assets[1].Dust(); got != 0.1 {
		t.Errorf("Dust() = %v, want override 0.1", got)
	}
}

func TestLoadConfigRejectsBadScheme(t *testing.T) {
	content := `optimisoor:
  name: "TestApp"
  version: "1.0"
assets:
  - id: "mint"
    scheme: bogus
registry:
  base_url: "https://api.solana.fm"
metadata:
  base_url: "https://api.sanctum.so"
`
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for bogus scheme")
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}
