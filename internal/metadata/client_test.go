package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/internal/upstream"
)

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/metadata/mintX" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"name":"Juicy SOL","symbol":"jucySOL","decimals":9}`))
	}))
	defer server.Close()

	client := NewClient(config.MetadataConfig{BaseURL: server.URL})
	meta, err := client.Resolve(context.Background(), "mintX")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if meta.ID != "mintX" || meta.Symbol != "jucySOL" || meta.Name != "Juicy SOL" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Decimals != 9 {
		t.Errorf("unexpected decimals: %d", meta.Decimals)
	}
}

func TestResolveDefaultsDecimals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Bonk SOL","symbol":"bonkSOL"}`))
	}))
	defer server.Close()

	client := NewClient(config.MetadataConfig{BaseURL: server.URL})
	meta, err := client.Resolve(context.Background(), "mintY")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if meta.Decimals != defaultDecimals {
		t.Errorf("expected default decimals %d, got %d", defaultDecimals, meta.Decimals)
	}
}

func TestResolveStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(config.MetadataConfig{BaseURL: server.URL})
	_, err := client.Resolve(context.Background(), "missing")
	var statusErr *upstream.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Errorf("unexpected status code: %d", statusErr.Code)
	}
}

func TestResolveMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": `))
	}))
	defer server.Close()

	client := NewClient(config.MetadataConfig{BaseURL: server.URL})
	_, err := client.Resolve(context.Background(), "mintX")
	var malformed *upstream.MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError for undecodable body, got %v", err)
	}
	if malformed.Endpoint != "metadata" {
		t.Errorf("unexpected endpoint: %s", malformed.Endpoint)
	}
}
