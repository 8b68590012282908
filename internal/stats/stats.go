package stats

import (
	"math"
	"sort"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/models"
)

// Distribute buckets amounts into the named scheme and derives percentages
// of the binned population. With no binned amounts every percentage is zero.
func Distribute(amounts []float64, scheme string) models.Distribution {
	edges := SchemeEdges(scheme)
	counts := make([]int, len(edges))
	total := 0
	for _, amount := range amounts {
		if idx := binIndex(edges, amount); idx >= 0 {
			counts[idx]++
			total++
		}
	}

	percentages := make([]float64, len(counts))
	if total > 0 {
		for i, count := range counts {
			percentages[i] = float64(count) / float64(total) * 100
		}
	}

	return models.Distribution{
		Labels:      SchemeLabels(scheme),
		Counts:      counts,
		Percentages: percentages,
	}
}

// Cumulative derives the running-percentage view of a distribution, with
// each bin's own added share kept alongside.
func Cumulative(amounts []float64, scheme string) models.CumulativeDistribution {
	dist := Distribute(amounts, scheme)

	cumulative := make([]float64, len(dist.Percentages))
	running := 0.0
	for i, pct := range dist.Percentages {
		running += pct
		cumulative[i] = running
	}

	return models.CumulativeDistribution{
		Labels:      dist.Labels,
		Cumulative:  cumulative,
		Added:       dist.Percentages,
		AddedCounts: dist.Counts,
	}
}

// Summarize computes descriptive statistics over an amount sequence. An
// empty sequence yields the zero value; a single value yields zero standard
// deviation.
func Summarize(amounts []float64) models.SummaryStats {
	n := len(amounts)
	if n == 0 {
		return models.SummaryStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, amounts)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return models.SummaryStats{
		Mean:   mean,
		Median: median,
		Sum:    sum,
		Count:  n,
		StdDev: math.Sqrt(variance),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

// OwnerProfiles folds a snapshot into per-owner cross-asset aggregates.
// Repeat holdings of the same asset by one owner are summed, never
// overwritten; inner maps are created lazily on first sight of an owner.
func OwnerProfiles(snap models.Snapshot) map[string]models.OwnerProfile {
	perOwner := make(map[string]map[string]float64)
	for assetID, holdings := range snap {
		for _, h := range holdings {
			assets, ok := perOwner[h.Owner]
			if !ok {
				assets = make(map[string]float64)
				perOwner[h.Owner] = assets
			}
			assets[assetID] += h.Amount
		}
	}

	profiles := make(map[string]models.OwnerProfile, len(perOwner))
	for owner, perAsset := range perOwner {
		total := 0.0
		for _, amount := range perAsset {
			total += amount
		}
		profiles[owner] = models.OwnerProfile{
			PerAsset:  perAsset,
			Total:     total,
			Diversity: len(perAsset),
		}
	}
	return profiles
}

// DiversityHistogram counts owners by how many distinct assets they hold.
// Index i holds the count of owners with diversity i+1.
func DiversityHistogram(profiles map[string]models.OwnerProfile) []int {
	max := 0
	for _, p := range profiles {
		if p.Diversity > max {
			max = p.Diversity
		}
	}
	hist := make([]int, max)
	for _, p := range profiles {
		hist[p.Diversity-1]++
	}
	return hist
}

// UniqueHolders counts distinct owners per asset. Distinct from account
// counts because an owner may hold several accounts in one asset.
func UniqueHolders(snap models.Snapshot) map[string]int {
	out := make(map[string]int, len(snap))
	for assetID, holdings := range snap {
		owners := make(map[string]struct{}, len(holdings))
		for _, h := range holdings {
			owners[h.Owner] = struct{}{}
		}
		out[assetID] = len(owners)
	}
	return out
}

// Aggregate derives the full cycle report from one snapshot. The function is
// deterministic for a given snapshot and asset list; the caller stamps cycle
// identity and timestamps afterwards.
func Aggregate(snap models.Snapshot, assets []config.AssetConfig) models.CycleReport {
	report := models.CycleReport{}

	for _, asset := range assets {
		scheme := asset.Scheme
		if scheme == "" {
			scheme = config.SchemeWide
		}
		amounts := make([]float64, 0, len(snap[asset.ID]))
		for _, h := range snap[asset.ID] {
			amounts = append(amounts, h.Amount)
		}
		report.Assets = append(report.Assets, models.DistributionReport{
			AssetID: asset.ID,
			Scheme:  scheme,
			Bins:    Distribute(amounts, scheme),
			Stats:   Summarize(amounts),
		})
	}

	profiles := OwnerProfiles(snap)
	totals := make([]float64, 0, len(profiles))
	for _, p := range profiles {
		totals = append(totals, p.Total)
	}
	sort.Float64s(totals)

	report.OwnerTotals = Distribute(totals, config.SchemeNearParity)
	report.OwnerTotalsCumulative = Cumulative(totals, config.SchemeNearParity)
	report.DiversityHistogram = DiversityHistogram(profiles)
	report.UniqueHolders = UniqueHolders(snap)
	return report
}
