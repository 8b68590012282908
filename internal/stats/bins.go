package stats

import (
	"strconv"

	"github.com/hogyzen12/optimisoor/config"
)

// wideEdges is the logarithmic scheme for assets whose holdings span orders
// of magnitude. The final bin is open-ended.
var wideEdges = []float64{0.1, 1, 10, 100, 1000}

// nearParityEdges is the narrow scheme for assets whose normalized unit
// clusters around 1.0.
var nearParityEdges = []float64{0.1, 0.3, 0.5, 0.7, 0.9, 1.0, 1.1, 2, 4, 6, 8, 10}

// SchemeEdges returns the lower bin edges for a scheme name. Unknown names
// fall back to the wide scheme.
func SchemeEdges(scheme string) []float64 {
	if scheme == config.SchemeNearParity {
		return nearParityEdges
	}
	return wideEdges
}

// SchemeLabels returns display labels aligned with SchemeEdges, the last one
// marking the open-ended bin.
func SchemeLabels(scheme string) []string {
	edges := SchemeEdges(scheme)
	labels := make([]string, len(edges))
	for i := range edges {
		if i == len(edges)-1 {
			labels[i] = formatEdge(edges[i]) + "+"
			continue
		}
		labels[i] = formatEdge(edges[i]) + "-" + formatEdge(edges[i+1])
	}
	return labels
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// binIndex places an amount in its scheme bin, or -1 when it falls below the
// first edge.
func binIndex(edges []float64, amount float64) int {
	if amount < edges[0] {
		return -1
	}
	for i := len(edges) - 1; i >= 0; i-- {
		if amount >= edges[i] {
			return i
		}
	}
	return -1
}
