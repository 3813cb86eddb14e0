package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryClient_FetchTemplates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/templates", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "Dragon", "rarity": "rare", "ipfs": "Qm1", "issued": 40, "max_supply": 100},
			{"id": 2, "name": "Promo", "rarity": "common", "excluded": true},
		})
	}))
	defer server.Close()

	client := NewRegistryClient(server.URL, time.Second, testMaxBody)
	templates, err := client.FetchTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, int64(1), templates[0].ID)
	assert.Equal(t, "Dragon", templates[0].Name)
	assert.Equal(t, int64(100), templates[0].MaxSupply)
	assert.True(t, templates[1].Excluded)
}

func TestRegistryClient_FetchOwnedAssets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallets/alice/assets", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "a1", "template_id": 1, "rarity": "rare"},
		})
	}))
	defer server.Close()

	client := NewRegistryClient(server.URL, time.Second, testMaxBody)
	assets, err := client.FetchOwnedAssets(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "a1", assets[0].ID)
	assert.Equal(t, int64(1), assets[0].TemplateID)
	assert.Equal(t, "alice", assets[0].Wallet) // client stamps the wallet on each asset
}

func TestRegistryClient_ResponseSizeIsBounded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Valid JSON far larger than the configured cap.
		w.Write([]byte(`[{"id": "` + strings.Repeat("x", 4096) + `"}]`))
	}))
	defer server.Close()

	client := NewRegistryClient(server.URL, time.Second, 64)
	_, err := client.FetchOwnedAssets(context.Background(), "alice")
	assert.Error(t, err)
}

func TestRegistryClient_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewRegistryClient(server.URL, 10*time.Second, testMaxBody)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.FetchTemplates(ctx)
	assert.Error(t, err)
}
