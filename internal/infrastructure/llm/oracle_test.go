package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/infrastructure/config"
)

func newTestOracle(t *testing.T, handler http.HandlerFunc) *Oracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOracle(config.OracleConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func completionWith(content string) string {
	payload := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestResolveAmbiguousParsesVerdict(t *testing.T) {
	var gotUser string
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotUser = req.Messages[len(req.Messages)-1].Content

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionWith(`{"color_data":[{"control_color":"песчаный","most_appropriate":"золотистый","confidence":8}]}`))
	})

	verdict, err := oracle.ResolveAmbiguous(context.Background(), "песчаный", []string{"белый", "золотистый", "серый", "черный"})
	require.NoError(t, err)

	assert.Equal(t, "золотистый", verdict.BestValue)
	assert.Equal(t, 8, verdict.Confidence)
	assert.Contains(t, gotUser, "control_color: песчаный")
	assert.Contains(t, gotUser, "белый, золотистый, серый, черный")
}

func TestResolveAmbiguousRoundsConfidence(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionWith(`{"color_data":[{"control_color":"q","most_appropriate":"white","confidence":6.7}]}`))
	})

	verdict, err := oracle.ResolveAmbiguous(context.Background(), "q", []string{"white"})
	require.NoError(t, err)
	assert.Equal(t, 7, verdict.Confidence)
}

func TestResolveAmbiguousAPIFailure(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	})

	_, err := oracle.ResolveAmbiguous(context.Background(), "q", []string{"white"})
	assert.Error(t, err)
}

func TestResolveAmbiguousHonorsConfiguredTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// hold the request open far longer than the configured bound
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	oracle := NewOracle(config.OracleConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o-mini",
		Timeout: 100 * time.Millisecond,
	}, zap.NewNop())

	start := time.Now()
	_, err := oracle.ResolveAmbiguous(context.Background(), "q", []string{"white"})
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.Less(t, elapsed, 2*time.Second, "call must return once the configured timeout elapses")
}

func TestResolveAmbiguousEmptyVerdict(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionWith(`{"color_data":[]}`))
	})

	_, err := oracle.ResolveAmbiguous(context.Background(), "q", []string{"white"})
	assert.Error(t, err)
}
