package normalizer

import (
	"testing"

	"github.com/hogyzen12/optimisoor/models"
)

func TestNormalizeExactness(t *testing.T) {
	records := []models.HolderRecord{
		{Owner: "ownerA", RawAmount: "1500000000", Decimals: 9},
		{Owner: "ownerB", RawAmount: "250000", Decimals: 6},
	}
	holdings := Normalize(records, 0.01)
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	if holdings[0].Amount != 1.5 {
		t.Errorf("ownerA amount = %v, want 1.5", holdings[0].Amount)
	}
	if holdings[1].Amount != 0.25 {
		t.Errorf("ownerB amount = %v, want 0.25", holdings[1].Amount)
	}
}

func TestNormalizeDustBound(t *testing.T) {
	records := []models.HolderRecord{
		{Owner: "dust", RawAmount: "10000000", Decimals: 9},      // exactly 0.01
		{Owner: "justAbove", RawAmount: "10000001", Decimals: 9}, // barely above
		{Owner: "below", RawAmount: "9999999", Decimals: 9},
	}
	holdings := Normalize(records, 0.01)
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	if holdings[0].Owner != "justAbove" {
		t.Errorf("unexpected surviving owner: %s", holdings[0].Owner)
	}
}

func TestNormalizePreservesOrderAndDuplicates(t *testing.T) {
	records := []models.HolderRecord{
		{Owner: "ownerA", RawAmount: "2000000000", Decimals: 9},
		{Owner: "ownerB", RawAmount: "1000000000", Decimals: 9},
		{Owner: "ownerA", RawAmount: "3000000000", Decimals: 9},
	}
	holdings := Normalize(records, 0.01)
	if len(holdings) != 3 {
		t.Fatalf("expected 3 holdings, got %d", len(holdings))
	}
	want := []string{"ownerA", "ownerB", "ownerA"}
	for i, owner := range want {
		if holdings[i].Owner != owner {
			t.Errorf("holdings[%d].Owner = %s, want %s", i, holdings[i].Owner, owner)
		}
	}
}

func TestNormalizeSkipsUnparseableAmounts(t *testing.T) {
	records := []models.HolderRecord{
		{Owner: "bad", RawAmount: "??", Decimals: 9},
		{Owner: "good", RawAmount: "1000000000", Decimals: 9},
	}
	holdings := Normalize(records, 0.01)
	if len(holdings) != 1 || holdings[0].Owner != "good" {
		t.Fatalf("unexpected holdings: %+v", holdings)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := Normalize(nil, 0.01); len(got) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}
