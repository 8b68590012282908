package normalizer

import (
	"math"
	"strconv"

	"github.com/hogyzen12/optimisoor/models"
)

// Normalize converts raw holder records to display-unit holdings and drops
// entries at or below the dust threshold. Input order is preserved and owners
// are not merged; the aggregation engine handles repeat owners later.
// Records with an unparseable raw amount are skipped.
func Normalize(records []models.HolderRecord, dust float64) []models.NormalizedHolding {
	out := make([]models.NormalizedHolding, 0, len(records))
	for _, rec := range records {
		raw, err := strconv.ParseFloat(rec.RawAmount, 64)
		if err != nil {
			continue
		}
		amount := raw / math.Pow10(rec.Decimals)
		if amount > dust {
			out = append(out, models.NormalizedHolding{Owner: rec.Owner, Amount: amount})
		}
	}
	return out
}
