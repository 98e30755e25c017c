package medsearch

import (
	"context"
	"testing"
	"time"

	"github.com/medsearch-ai/medsearch/config"
)

func validConfig() *config.Config {
	cfg, err := config.Load([]byte(`
search:
  endpoint: http://localhost:9200
  indices:
    literature: pubmed_articles
    trials: clinical_trials
    drugs: fda_drugs
llm:
  model: gpt-4o-mini
embedding:
  model: text-embedding-3-small
`))
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(validConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if client.engine == nil {
		t.Error("expected wired engine")
	}
	if _, err := client.ListSessions(context.Background(), 10); err != nil {
		t.Errorf("session store not usable: %v", err)
	}
}

func TestNewClient_NilConfig(t *testing.T) {
	if _, err := NewClient(nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestClose_PurgesCache(t *testing.T) {
	client, err := NewClient(validConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	client.cache.SetWithTTL(ctx, "k", []byte("v"), time.Minute)
	if _, ok := client.cache.Get(ctx, "k"); !ok {
		t.Fatal("expected cached value before close")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, ok := client.cache.Get(ctx, "k"); ok {
		t.Error("expected cache purged on close")
	}
}

func TestCancel_UnknownSession(t *testing.T) {
	client, err := NewClient(validConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if client.Cancel("nope") {
		t.Error("expected false for unknown session")
	}
}
