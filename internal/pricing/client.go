package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/upstream"
	"github.com/hogyzen12/optimisoor/logger"
	"github.com/hogyzen12/optimisoor/models"
)

// priceScale converts the feed's lamport-denominated quotes to display units.
const priceScale = 1e9

// Client fetches prices for a batch of mints in one request. Prices only
// annotate reports, so callers degrade to zero values on any failure instead
// of propagating it.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logger.Entry
}

func NewClient(cfg config.PricingConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger.GetLogger().WithComponent("pricing"),
	}
}

type priceResponse struct {
	Prices []models.PriceQuote `json:"prices"`
}

// Fetch returns display-unit prices keyed by mint. Mints missing from the
// response are simply absent from the map.
func (c *Client) Fetch(ctx context.Context, assetIDs []string) (map[string]float64, error) {
	if len(assetIDs) == 0 {
		return map[string]float64{}, nil
	}

	query := url.Values{}
	for _, id := range assetIDs {
		query.Add("input", id)
	}
	reqURL := fmt.Sprintf("%s/v1/price?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &upstream.StatusError{Endpoint: "price", Code: resp.StatusCode}
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &upstream.MalformedError{Endpoint: "price", Err: err}
	}

	prices := make(map[string]float64, len(body.Prices))
	for _, quote := range body.Prices {
		raw, err := strconv.ParseFloat(quote.Amount, 64)
		if err != nil {
			c.log.WithError(err).WithFields(logger.Fields{"asset": quote.Mint}).Warn("skipping unparseable price quote")
			continue
		}
		prices[quote.Mint] = raw / priceScale
	}
	return prices, nil
}
