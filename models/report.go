package models

import (
	"time"
)

// SummaryStats are the descriptive statistics computed over one filtered
// amount sequence.
type SummaryStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Sum    float64 `json:"sum"`
	Count  int     `json:"count"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Distribution is a binned percentage-of-holders view of an amount sequence.
// Labels, Counts and Percentages are index-aligned.
type Distribution struct {
	Labels      []string  `json:"labels"`
	Counts      []int     `json:"counts"`
	Percentages []float64 `json:"percentages"`
}

// CumulativeDistribution is the running-sum variant of Distribution. Added
// holds each bin's own contribution on top of the previous cumulative value.
type CumulativeDistribution struct {
	Labels      []string  `json:"labels"`
	Cumulative  []float64 `json:"cumulative"`
	Added       []float64 `json:"added"`
	AddedCounts []int     `json:"added_counts"`
}

// DistributionReport is the per-asset output of the aggregation engine.
type DistributionReport struct {
	AssetID string       `json:"asset_id"`
	Scheme  string       `json:"scheme"`
	Bins    Distribution `json:"bins"`
	Stats   SummaryStats `json:"stats"`
}

// OwnerProfile is the per-owner cross-asset aggregate. PerAsset maps asset id
// to the summed normalized amount of every account that owner holds in it.
type OwnerProfile struct {
	PerAsset  map[string]float64 `json:"per_asset"`
	Total     float64            `json:"total"`
	Diversity int                `json:"diversity"`
}

// CycleReport bundles everything the aggregation engine derives from one
// snapshot. It is handed to the publisher and discarded after the cycle.
type CycleReport struct {
	CycleID               string                   `json:"cycle_id"`
	GeneratedAt           time.Time                `json:"generated_at"`
	Assets                []DistributionReport     `json:"assets"`
	OwnerTotals           Distribution             `json:"owner_totals"`
	OwnerTotalsCumulative CumulativeDistribution   `json:"owner_totals_cumulative"`
	DiversityHistogram    []int                    `json:"diversity_histogram"`
	UniqueHolders         map[string]int           `json:"unique_holders"`
	Metadata              map[string]AssetMetadata `json:"metadata,omitempty"`
	Prices                map[string]float64       `json:"prices,omitempty"`
}
