package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/google/uuid"
	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/upstream"
	"github.com/hogyzen12/optimisoor/logger"
	"github.com/hogyzen12/optimisoor/models"
)

// CursorClient reads holder records through the cursor-paginated
// getTokenAccounts RPC method instead of the page/pageSize read API. The feed
// does not report a total item count; the walk ends when a page comes back
// empty or without a continuation cursor.
type CursorClient struct {
	cfg     config.RegistryConfig
	client  *http.Client
	limiter *rate.Limiter
	raw     RawWriter
	log     *logger.Entry
}

func NewCursorClient(cfg config.RegistryConfig, raw RawWriter) *CursorClient {
	interval := cfg.InterPageDelay
	if interval <= 0 {
		interval = time.Second
	}
	return &CursorClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		raw:     raw,
		log:     logger.GetLogger().WithComponent("registry_cursor"),
	}
}

type cursorParams struct {
	Limit  int    `json:"limit"`
	Mint   string `json:"mint"`
	Cursor string `json:"cursor,omitempty"`
}

type cursorRequest struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      string       `json:"id"`
	Method  string       `json:"method"`
	Params  cursorParams `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type cursorResponse struct {
	Result models.CursorFeedResult `json:"result"`
	Error  *rpcError               `json:"error"`
}

// FetchAllHolders collects every holder record reachable through the cursor
// feed. The partial-failure contract matches the paginated client: a failed
// request ends the walk and whatever was collected so far is returned and
// persisted. Records carry no decimals on this feed; callers backfill them
// from asset metadata before normalization.
func (c *CursorClient) FetchAllHolders(ctx context.Context, assetID string) ([]models.HolderRecord, error) {
	collected := make([]models.HolderRecord, 0, c.cfg.PageSize)
	cursor := ""

	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			c.persist(assetID, collected)
			return collected, fmt.Errorf("pacing wait before page %d: %w", page, err)
		}

		result, err := c.fetchPage(ctx, assetID, cursor)
		if err != nil {
			c.log.WithError(err).WithFields(logger.Fields{
				"asset":     assetID,
				"page":      page,
				"collected": len(collected),
			}).Warn("cursor page fetch failed, keeping partial result")
			break
		}

		if len(result.TokenAccounts) == 0 {
			break
		}

		for _, acct := range result.TokenAccounts {
			collected = append(collected, models.HolderRecord{
				Owner:     acct.Owner,
				RawAmount: strconv.FormatFloat(acct.Amount, 'f', -1, 64),
			})
		}
		logger.IncrementPageRead(len(result.TokenAccounts))
		logger.RecordSourceMessage("registry_cursor", len(result.TokenAccounts))

		if result.Cursor == "" {
			break
		}
		cursor = result.Cursor
	}

	c.persist(assetID, collected)
	return collected, nil
}

func (c *CursorClient) persist(assetID string, records []models.HolderRecord) {
	if c.raw == nil {
		return
	}
	if err := c.raw.WriteRawAccounts(assetID, records); err != nil {
		c.log.WithError(err).WithFields(logger.Fields{"asset": assetID}).Warn("failed to persist raw holder records")
		return
	}
	logger.LogDataFlowEntry(c.log, "cursor_feed", "snapshot_store", len(records), "records")
}

func (c *CursorClient) fetchPage(ctx context.Context, assetID, cursor string) (*models.CursorFeedResult, error) {
	payload := cursorRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "getTokenAccounts",
		Params: cursorParams{
			Limit:  c.cfg.PageSize,
			Mint:   assetID,
			Cursor: cursor,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode token accounts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build token accounts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request token accounts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &upstream.StatusError{Endpoint: "getTokenAccounts", Code: resp.StatusCode}
	}

	var decoded cursorResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &upstream.MalformedError{Endpoint: "getTokenAccounts", Err: err}
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("token accounts rpc error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	return &decoded.Result, nil
}
