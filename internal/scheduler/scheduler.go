package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/normalizer"
	"github.com/hogyzen12/optimisoor/internal/snapshot"
	"github.com/hogyzen12/optimisoor/internal/stats"
	"github.com/hogyzen12/optimisoor/logger"
	"github.com/hogyzen12/optimisoor/models"
)

// Fetcher collects every raw holder record for one asset. A partial result
// with a nil error is valid output.
type Fetcher interface {
	FetchAllHolders(ctx context.Context, assetID string) ([]models.HolderRecord, error)
}

// MetadataResolver fetches display metadata for one asset.
type MetadataResolver interface {
	Resolve(ctx context.Context, assetID string) (models.AssetMetadata, error)
}

// PriceSource fetches display-unit prices for a batch of assets.
type PriceSource interface {
	Fetch(ctx context.Context, assetIDs []string) (map[string]float64, error)
}

// Publisher is the external-collaborator boundary: it renders and stores the
// cycle's reports and pushes the dated directory's artifacts to storage.
type Publisher interface {
	PublishReport(ctx context.Context, report *models.CycleReport, snap models.Snapshot) error
	Upload(ctx context.Context, dir string) error
}

// Scheduler runs the outer staleness-driven cycle loop: decide whether the
// day's snapshot is stale, collect and aggregate when it is, and always give
// the publisher a chance to upload.
type Scheduler struct {
	cfg       *config.Config
	store     *snapshot.Store
	fetcher   Fetcher
	metadata  MetadataResolver
	prices    PriceSource
	publisher Publisher
	log       *logger.Entry

	// injectable for boundary tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg *config.Config, store *snapshot.Store, fetcher Fetcher, metadata MetadataResolver, prices PriceSource, publisher Publisher) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		store:     store,
		fetcher:   fetcher,
		metadata:  metadata,
		prices:    prices,
		publisher: publisher,
		log:       logger.GetLogger().WithComponent("scheduler"),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run loops forever, one decision per cycle interval. It returns only when
// the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.RunCycle(ctx)
		if err := s.sleep(ctx, s.cfg.Snapshot.CycleInterval); err != nil {
			return err
		}
	}
}

// RunCycle performs one staleness decision and, when due, one full
// collect-aggregate-publish pass. The upload step runs unconditionally so a
// restart can push artifacts a previous run left behind.
func (s *Scheduler) RunCycle(ctx context.Context) {
	datedDir, err := s.store.DatedDir(s.now())
	if err != nil {
		s.log.WithError(err).Error("failed to resolve dated directory")
		return
	}

	state := s.store.CycleState(datedDir)
	due := !state.Known || s.now().Sub(state.LastFetch) > s.cfg.Snapshot.FreshnessWindow

	if due {
		s.log.WithFields(logger.Fields{
			"bucket": state.DayBucket,
			"known":  state.Known,
		}).Info("snapshot stale, starting collection cycle")
		if err := s.collect(ctx, datedDir); err != nil {
			s.log.WithError(err).Error("collection cycle failed")
		}
	} else {
		s.log.WithFields(logger.Fields{
			"bucket": state.DayBucket,
			"age":    s.now().Sub(state.LastFetch).String(),
		}).Debug("snapshot fresh, skipping collection")
	}

	if err := s.publisher.Upload(ctx, datedDir); err != nil {
		s.log.WithError(err).Warn("artifact upload failed")
	}
}

// collect runs the per-asset fetch pipeline sequentially and persists the
// combined snapshot. Per-asset failures degrade that asset only; a persist
// failure halts the cycle.
func (s *Scheduler) collect(ctx context.Context, datedDir string) error {
	snap := make(models.Snapshot, len(s.cfg.Assets))
	meta := make(map[string]models.AssetMetadata)

	for i, asset := range s.cfg.Assets {
		if i > 0 && s.cfg.Registry.InterAssetDelay > 0 {
			if err := s.sleep(ctx, s.cfg.Registry.InterAssetDelay); err != nil {
				return err
			}
		}

		md, err := s.metadata.Resolve(ctx, asset.ID)
		if err != nil {
			s.log.WithError(err).WithFields(logger.Fields{"asset": asset.ID}).Warn("metadata unavailable, labeled outputs skipped")
		} else {
			meta[asset.ID] = md
		}

		fetchStart := time.Now()
		records, err := s.fetcher.FetchAllHolders(ctx, asset.ID)
		if err != nil {
			s.log.WithError(err).WithFields(logger.Fields{"asset": asset.ID, "records": len(records)}).Warn("holder fetch incomplete")
		}
		logger.LogPerformanceEntry(s.log, "scheduler", "fetch_holders", time.Since(fetchStart), logger.Fields{"asset": asset.ID})
		s.log.LogMetric("scheduler", "holders_collected", len(records), "counter", logger.Fields{"asset": asset.ID})

		// the cursor feed carries no decimals; backfill from metadata.
		// Pages-mode records keep their own decimals, zero included.
		if s.cfg.Registry.Mode == "cursor" {
			for j := range records {
				if records[j].Decimals == 0 && md.Decimals > 0 {
					records[j].Decimals = md.Decimals
				}
			}
		}

		snap[asset.ID] = normalizer.Normalize(records, asset.Dust())
		s.log.WithFields(logger.Fields{
			"asset":    asset.ID,
			"records":  len(records),
			"holdings": len(snap[asset.ID]),
		}).Info("asset collected")
	}

	if err := s.store.WriteCombined(snap); err != nil {
		return fmt.Errorf("persist combined snapshot: %w", err)
	}

	report := stats.Aggregate(snap, s.cfg.Assets)
	report.CycleID = uuid.NewString()
	report.GeneratedAt = s.now().UTC()
	report.Metadata = meta

	if s.cfg.Pricing.Enabled && s.prices != nil {
		ids := make([]string, 0, len(s.cfg.Assets))
		for _, asset := range s.cfg.Assets {
			ids = append(ids, asset.ID)
		}
		prices, err := s.prices.Fetch(ctx, ids)
		if err != nil {
			s.log.WithError(err).Warn("price annotation unavailable")
		} else {
			report.Prices = prices
		}
	}

	if err := s.publisher.PublishReport(ctx, &report, snap); err != nil {
		s.log.WithError(err).Warn("report publication failed")
	}

	if err := s.store.MoveCycleArtifacts(datedDir); err != nil {
		return fmt.Errorf("move cycle artifacts: %w", err)
	}

	s.log.WithFields(logger.Fields{"cycle_id": report.CycleID, "assets": len(snap)}).Info("collection cycle complete")
	return nil
}
