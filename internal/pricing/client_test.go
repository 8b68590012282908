package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/upstream"
)

func TestFetchScalesAmounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inputs := r.URL.Query()["input"]
		if len(inputs) != 2 {
			t.Errorf("expected 2 input params, got %v", inputs)
		}
		w.Write([]byte(`{"prices":[
			{"mint":"mintA","amount":"1043451600"},
			{"mint":"mintB","amount":"998000000"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(config.PricingConfig{BaseURL: server.URL})
	prices, err := client.Fetch(context.Background(), []string{"mintA", "mintB"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got := prices["mintA"]; got != 1.0434516 {
		t.Errorf("mintA price = %v, want 1.0434516", got)
	}
	if got := prices["mintB"]; got != 0.998 {
		t.Errorf("mintB price = %v, want 0.998", got)
	}
}

func TestFetchEmptyBatch(t *testing.T) {
	client := NewClient(config.PricingConfig{BaseURL: "http://unused"})
	prices, err := client.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("expected empty map, got %v", prices)
	}
}

func TestFetchUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.PricingConfig{BaseURL: server.URL})
	if _, err := client.Fetch(context.Background(), []string{"mintA"}); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestFetchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices": [`))
	}))
	defer server.Close()

	client := NewClient(config.PricingConfig{BaseURL: server.URL})
	_, err := client.Fetch(context.Background(), []string{"mintA"})
	var malformed *upstream.MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError for undecodable body, got %v", err)
	}
}

func TestFetchSkipsUnparseableQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[
			{"mint":"mintA","amount":"not-a-number"},
			{"mint":"mintB","amount":"2000000000"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(config.PricingConfig{BaseURL: server.URL})
	prices, err := client.Fetch(context.Background(), []string{"mintA", "mintB"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, ok := prices["mintA"]; ok {
		t.Error("unparseable quote must be skipped")
	}
	if got := prices["mintB"]; got != 2.0 {
		t.Errorf("mintB price = %v, want 2.0", got)
	}
}
