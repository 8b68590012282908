package models

import (
	"time"
)

// AssetMetadata describes display metadata for one tracked mint. It is
// refetched every cycle and never persisted.
type AssetMetadata struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// HolderRecord is one raw token-account balance entry for an asset. An owner
// may appear more than once per asset because accounts are not pre-merged
// by the upstream feed.
type HolderRecord struct {
	Owner     string `json:"owner"`
	RawAmount string `json:"rawAmount"`
	Decimals  int    `json:"decimals"`
}

// NormalizedHolding is a holder balance converted to display units.
// Entries below the dust threshold are dropped at normalization time.
type NormalizedHolding struct {
	Owner  string  `json:"owner"`
	Amount float64 `json:"amount_normalized"`
}

// Snapshot maps an asset id to the ordered normalized holdings collected in
// one fetch cycle. Written once per cycle, read-only afterward.
type Snapshot map[string][]NormalizedHolding

// CycleState carries the scheduling inputs for one staleness decision.
type CycleState struct {
	LastFetch time.Time
	Known     bool
	DayBucket string
}

// TokenAmount is the nested raw balance object on the paginated holder feed.
type TokenAmount struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

// HolderAccountInfo is the per-account payload on the paginated holder feed.
type HolderAccountInfo struct {
	Owner       string      `json:"owner"`
	TokenAmount TokenAmount `json:"tokenAmount"`
}

// HolderFeedAccount wraps one token account entry as returned by the
// holder-registry read API.
type HolderFeedAccount struct {
	Info HolderAccountInfo `json:"info"`
}

// HolderFeedPage is one page of the paginated holder-registry response.
type HolderFeedPage struct {
	TokenAccounts  []HolderFeedAccount `json:"tokenAccounts"`
	TotalItemCount int                 `json:"totalItemCount"`
}

// CursorFeedAccount is one token account entry from the cursor-paginated
// RPC holder source.
type CursorFeedAccount struct {
	Owner  string  `json:"owner"`
	Amount float64 `json:"amount"`
}

// CursorFeedResult is the result body of one getTokenAccounts RPC response.
type CursorFeedResult struct {
	TokenAccounts []CursorFeedAccount `json:"token_accounts"`
	Cursor        string              `json:"cursor"`
}

// PriceQuote is one entry of the batched price response.
type PriceQuote struct {
	Mint   string `json:"mint"`
	Amount string `json:"amount"`
}
