package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/upstream"
	"github.com/hogyzen12/optimisoor/logger"
	"github.com/hogyzen12/optimisoor/models"
)

// defaultDecimals applies when the metadata feed omits the decimals field.
// SPL liquid-staking mints use 9 decimal places.
const defaultDecimals = 9

// Client resolves display metadata for a mint. Every call performs a fresh
// GET so renamed assets pick up their new labels on the next cycle.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logger.Entry
}

func NewClient(cfg config.MetadataConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger.GetLogger().WithComponent("metadata"),
	}
}

type metadataResponse struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals *int   `json:"decimals"`
}

// Resolve fetches the asset's metadata. A failure here only skips labeled
// outputs for the asset; the caller keeps going with the bare mint id.
func (c *Client) Resolve(ctx context.Context, assetID string) (models.AssetMetadata, error) {
	url := fmt.Sprintf("%s/v1/metadata/%s", c.baseURL, assetID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.AssetMetadata{}, fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.AssetMetadata{}, fmt.Errorf("request metadata for %s: %w", assetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.AssetMetadata{}, &upstream.StatusError{Endpoint: "metadata", Code: resp.StatusCode}
	}

	var body metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.AssetMetadata{}, &upstream.MalformedError{Endpoint: "metadata", Err: err}
	}

	decimals := defaultDecimals
	if body.Decimals != nil {
		decimals = *body.Decimals
	}

	meta := models.AssetMetadata{
		ID:       assetID,
		Name:     body.Name,
		Symbol:   body.Symbol,
		Decimals: decimals,
	}
	c.log.WithFields(logger.Fields{"asset": assetID, "symbol": meta.Symbol}).Debug("resolved asset metadata")
	return meta, nil
}
