package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/upstream"
	"github.com/hogyzen12/optimisoor/logger"
	"github.com/hogyzen12/optimisoor/models"
)

// RawWriter persists the raw page-concatenated holder records for an asset.
// The fetcher writes through it before returning so the raw artifact exists
// even when normalization later drops entries.
type RawWriter interface {
	WriteRawAccounts(assetID string, records []models.HolderRecord) error
}

// Client reads the page/pageSize holder-registry feed. One request per page,
// paced by a rate limiter so the upstream never sees bursts.
type Client struct {
	cfg     config.RegistryConfig
	client  *http.Client
	limiter *rate.Limiter
	raw     RawWriter
	log     *logger.Entry
}

func NewClient(cfg config.RegistryConfig, raw RawWriter) *Client {
	interval := cfg.InterPageDelay
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		raw:     raw,
		log:     logger.GetLogger().WithComponent("registry"),
	}
}

// FetchAllHolders walks the paginated feed for one asset and returns every
// raw holder record it managed to collect. The loop runs in two phases: until
// the first successful page the expected total is unknown; afterwards it is
// fixed and the loop ends once enough records have been collected. A failed
// page ends the walk early and the partial accumulator is still returned and
// persisted.
func (c *Client) FetchAllHolders(ctx context.Context, assetID string) ([]models.HolderRecord, error) {
	collected := make([]models.HolderRecord, 0, c.cfg.PageSize)
	expectedTotal := 0
	totalKnown := false

	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			c.persist(assetID, collected)
			return collected, fmt.Errorf("pacing wait before page %d: %w", page, err)
		}

		feed, err := c.fetchPage(ctx, assetID, page)
		if err != nil {
			c.log.WithError(err).WithFields(logger.Fields{
				"asset":     assetID,
				"page":      page,
				"collected": len(collected),
			}).Warn("holder page fetch failed, keeping partial result")
			break
		}

		if !totalKnown {
			expectedTotal = feed.TotalItemCount
			totalKnown = true
		}

		if len(feed.TokenAccounts) == 0 {
			break
		}

		for _, acct := range feed.TokenAccounts {
			collected = append(collected, models.HolderRecord{
				Owner:     acct.Info.Owner,
				RawAmount: acct.Info.TokenAmount.Amount,
				Decimals:  acct.Info.TokenAmount.Decimals,
			})
		}
		logger.IncrementPageRead(len(feed.TokenAccounts))

		c.log.WithFields(logger.Fields{
			"asset":     assetID,
			"page":      page,
			"collected": len(collected),
			"expected":  expectedTotal,
		}).Debug("holder page collected")

		if totalKnown && len(collected) >= expectedTotal {
			break
		}
	}

	c.persist(assetID, collected)
	return collected, nil
}

func (c *Client) persist(assetID string, records []models.HolderRecord) {
	if c.raw == nil {
		return
	}
	if err := c.raw.WriteRawAccounts(assetID, records); err != nil {
		c.log.WithError(err).WithFields(logger.Fields{"asset": assetID}).Warn("failed to persist raw holder records")
		return
	}
	logger.LogDataFlowEntry(c.log, "holder_feed", "snapshot_store", len(records), "records")
}

func (c *Client) fetchPage(ctx context.Context, assetID string, page int) (*models.HolderFeedPage, error) {
	url := fmt.Sprintf("%s/v1/tokens/%s/holders?page=%d&pageSize=%d",
		strings.TrimRight(c.cfg.BaseURL, "/"), assetID, page, c.cfg.PageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build holders request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request holders page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &upstream.StatusError{Endpoint: "holders", Code: resp.StatusCode}
	}

	var body models.HolderFeedPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &upstream.MalformedError{Endpoint: "holders", Err: err}
	}
	return &body, nil
}
