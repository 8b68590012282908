package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/snapshot"
	"github.com/hogyzen12/optimisoor/models"
)

type fakeFetcher struct {
	calls   []string
	records map[string][]models.HolderRecord
}

func (f *fakeFetcher) FetchAllHolders(ctx context.Context, assetID string) ([]models.HolderRecord, error) {
	f.calls = append(f.calls, assetID)
	return f.records[assetID], nil
}

type fakeMetadata struct{}

func (fakeMetadata) Resolve(ctx context.Context, assetID string) (models.AssetMetadata, error) {
	return models.AssetMetadata{ID: assetID, Name: assetID, Symbol: assetID, Decimals: 9}, nil
}

type fakePublisher struct {
	reports []*models.CycleReport
	uploads []string
}

func (p *fakePublisher) PublishReport(ctx context.Context, report *models.CycleReport, snap models.Snapshot) error {
	p.reports = append(p.reports, report)
	return nil
}

func (p *fakePublisher) Upload(ctx context.Context, dir string) error {
	p.uploads = append(p.uploads, dir)
	return nil
}

func testConfig(dataDir string) *config.Config {
	return &config.Config{
		Assets: []config.AssetConfig{
			{ID: "assetA", Scheme: config.SchemeNearParity},
			{ID: "assetB", Scheme: config.SchemeWide},
		},
		Registry: config.RegistryConfig{InterAssetDelay: time.Millisecond},
		Snapshot: config.SnapshotConfig{
			DataDir:         dataDir,
			FreshnessWindow: 6 * time.Hour,
			CycleInterval:   24 * time.Hour,
		},
	}
}

func newTestScheduler(t *testing.T, fetcher *fakeFetcher, pub *fakePublisher) (*Scheduler, *snapshot.Store) {
	t.Helper()
	cfg := testConfig(t.TempDir())
	store := snapshot.NewStore(cfg.Snapshot)
	sched := New(cfg, store, fetcher, fakeMetadata{}, nil, pub)
	sched.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return sched, store
}

// seedArtifact plants a dated artifact whose age drives the staleness check.
func seedArtifact(t *testing.T, store *snapshot.Store, now time.Time, age time.Duration) {
	t.Helper()
	dir, err := store.DatedDir(now)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "token_data.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := now.Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestRunCycleFetchesWhenNoArtifact(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string][]models.HolderRecord{
		"assetA": {{Owner: "ownerX", RawAmount: "950000000", Decimals: 9}},
	}}
	pub := &fakePublisher{}
	sched, store := newTestScheduler(t, fetcher, pub)

	sched.RunCycle(context.Background())

	if len(fetcher.calls) != 2 {
		t.Fatalf("expected 2 asset fetches, got %v", fetcher.calls)
	}
	if len(pub.reports) != 1 {
		t.Fatalf("expected 1 published report, got %d", len(pub.reports))
	}
	if len(pub.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(pub.uploads))
	}

	// combined snapshot moved into the dated bucket
	dated, err := store.DatedDir(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dated, "token_data.json")); err != nil {
		t.Errorf("combined snapshot missing from dated dir: %v", err)
	}
}

func TestRunCycleSkipsFreshSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{}
	pub := &fakePublisher{}
	sched, store := newTestScheduler(t, fetcher, pub)

	now := time.Now()
	sched.now = func() time.Time { return now }
	seedArtifact(t, store, now, 5*time.Hour+59*time.Minute)

	sched.RunCycle(context.Background())

	if len(fetcher.calls) != 0 {
		t.Errorf("5h59m-old snapshot must be skipped, fetched %v", fetcher.calls)
	}
	if len(pub.uploads) != 1 {
		t.Errorf("upload must run even on a skipped cycle, got %d", len(pub.uploads))
	}
}

func TestRunCycleFetchesStaleSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string][]models.HolderRecord{}}
	pub := &fakePublisher{}
	sched, store := newTestScheduler(t, fetcher, pub)

	now := time.Now()
	sched.now = func() time.Time { return now }
	seedArtifact(t, store, now, 6*time.Hour+time.Minute)

	sched.RunCycle(context.Background())

	if len(fetcher.calls) != 2 {
		t.Errorf("6h01m-old snapshot must trigger a fetch, got %v", fetcher.calls)
	}
}

func TestRunCycleBackfillsCursorDecimals(t *testing.T) {
	// cursor-feed records arrive without decimals; metadata provides them
	fetcher := &fakeFetcher{records: map[string][]models.HolderRecord{
		"assetA": {{Owner: "ownerX", RawAmount: "2000000000"}},
	}}
	pub := &fakePublisher{}
	sched, store := newTestScheduler(t, fetcher, pub)
	sched.cfg.Registry.Mode = "cursor"

	sched.RunCycle(context.Background())

	dated, err := store.DatedDir(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dated, "token_data.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "" {
		t.Fatal("empty combined snapshot")
	}
	report := pub.reports[0]
	var assetA *models.DistributionReport
	for i := range report.Assets {
		if report.Assets[i].AssetID == "assetA" {
			assetA = &report.Assets[i]
		}
	}
	if assetA == nil {
		t.Fatal("assetA missing from report")
	}
	if assetA.Stats.Sum != 2.0 {
		t.Errorf("assetA sum = %v, want 2.0 after decimal backfill", assetA.Stats.Sum)
	}
}

func TestRunCyclePagesModeKeepsZeroDecimals(t *testing.T) {
	// a zero-decimal asset on the pages feed must not have its decimals
	// rewritten from metadata
	fetcher := &fakeFetcher{records: map[string][]models.HolderRecord{
		"assetA": {{Owner: "ownerX", RawAmount: "2", Decimals: 0}},
	}}
	pub := &fakePublisher{}
	sched, _ := newTestScheduler(t, fetcher, pub)
	sched.cfg.Registry.Mode = "pages"

	sched.RunCycle(context.Background())

	report := pub.reports[0]
	var assetA *models.DistributionReport
	for i := range report.Assets {
		if report.Assets[i].AssetID == "assetA" {
			assetA = &report.Assets[i]
		}
	}
	if assetA == nil {
		t.Fatal("assetA missing from report")
	}
	if assetA.Stats.Sum != 2.0 {
		t.Errorf("assetA sum = %v, want 2.0 with decimals left at zero", assetA.Stats.Sum)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fetcher := &fakeFetcher{}
	pub := &fakePublisher{}
	sched, _ := newTestScheduler(t, fetcher, pub)

	sleeps := 0
	sched.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		if sleeps >= 2 {
			return context.Canceled
		}
		return nil
	}

	if err := sched.Run(context.Background()); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sleeps != 2 {
		t.Errorf("expected 2 sleeps before cancellation, got %d", sleeps)
	}
}
