package publisher

import (
	"context"
	"fmt"

	appconfig "github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/snapshot"
	"github.com/hogyzen12/optimisoor/logger"
	"github.com/hogyzen12/optimisoor/models"
)

// Publisher is the boundary between the pipeline and everything downstream:
// it renders cycle reports into artifacts, exports the holdings as parquet,
// and pushes the day bucket to object storage.
type Publisher struct {
	store    *snapshot.Store
	renderer Renderer
	uploader *Uploader
	log      *logger.Entry
}

func New(cfg *appconfig.Config, store *snapshot.Store) (*Publisher, error) {
	var uploader *Uploader
	if cfg.Storage.S3.Enabled {
		var err error
		uploader, err = NewUploader(cfg.Storage.S3, cfg.Optimisoor.Version)
		if err != nil {
			return nil, fmt.Errorf("initialize uploader: %w", err)
		}
	}
	return &Publisher{
		store:    store,
		renderer: JSONRenderer{},
		uploader: uploader,
		log:      logger.GetLogger().WithComponent("publisher"),
	}, nil
}

// WithRenderer swaps the artifact renderer. Used to plug chart-producing
// renderers in without touching the pipeline.
func (p *Publisher) WithRenderer(r Renderer) *Publisher {
	p.renderer = r
	return p
}

// PublishReport renders the cycle's reports and the parquet holdings export
// into the working directory; the scheduler sweeps them into the day bucket
// together with the snapshot.
func (p *Publisher) PublishReport(ctx context.Context, report *models.CycleReport, snap models.Snapshot) error {
	artifacts, err := p.renderer.Render(report)
	if err != nil {
		return fmt.Errorf("render cycle report: %w", err)
	}
	for _, artifact := range artifacts {
		if err := p.store.WriteArtifact(artifact.Name, artifact.Data); err != nil {
			return err
		}
		// figures dir keeps the latest render for the dashboard; the data
		// dir copy is swept into the day bucket with the snapshot
		if err := p.store.WriteFigure(artifact.Name, artifact.Data); err != nil {
			return err
		}
	}

	parquetData, err := buildHoldingsParquet(snap)
	if err != nil {
		return fmt.Errorf("build holdings export: %w", err)
	}
	if err := p.store.WriteArtifact("holdings.parquet", parquetData); err != nil {
		return err
	}

	p.log.WithFields(logger.Fields{
		"cycle_id":  report.CycleID,
		"artifacts": len(artifacts) + 1,
	}).Info("published cycle report")
	return nil
}

// Upload pushes the dated directory to object storage. A nil uploader means
// S3 is disabled and the step is a clean no-op, though production-like
// deployments get a warning so a misconfigured bucket is noticed.
func (p *Publisher) Upload(ctx context.Context, dir string) error {
	if p.uploader == nil {
		entry := p.log.WithFields(logger.Fields{"dir": dir})
		if appconfig.IsProductionLike(appconfig.AppEnvironment()) {
			entry.Warn("object storage disabled, artifacts stay local")
		} else {
			entry.Debug("object storage disabled, skipping upload")
		}
		return nil
	}
	return p.uploader.UploadDir(ctx, dir)
}
