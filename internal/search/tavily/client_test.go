package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpl-agent/internal/search"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "webinar launch", req.Query)
		assert.Equal(t, 5, req.MaxResults)
		assert.Equal(t, "general", req.Topic)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"query":"webinar launch","results":[{"title":"T","url":"https://x","content":"C","score":0.9}]}`))
	}))
	defer srv.Close()

	c := NewClient("key").WithEndpoint(srv.URL)
	resp, err := c.Search(context.Background(), &search.Request{Query: "webinar launch"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://x", resp.Results[0].URL)
	assert.InDelta(t, 0.9, resp.Results[0].Score, 1e-9)
}

func TestClient_SearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("key").WithEndpoint(srv.URL).Search(context.Background(), &search.Request{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
