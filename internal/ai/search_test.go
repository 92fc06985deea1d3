package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/search"
	"github.com/cpl-agent/pkg/logger"
	"github.com/cpl-agent/pkg/ratelimit"
)

const toolUseResponse = `{
	"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
	"content": [
		{"type": "text", "text": "Let me check."},
		{"type": "tool_use", "id": "toolu_1", "name": "web_search", "input": {"query": "webinar launch trends"}}
	],
	"stop_reason": "tool_use",
	"usage": {"input_tokens": 10, "output_tokens": 5}
}`

const finalResponse = `{
	"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-test",
	"content": [{"type": "text", "text": "{\"title\": \"Protocol\"}"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 20, "output_tokens": 8}
}`

// fakeAnthropic replays canned responses and records request bodies
type fakeAnthropic struct {
	mu        sync.Mutex
	responses []string
	bodies    []string
	status    int
}

func (f *fakeAnthropic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	f.bodies = append(f.bodies, string(body))

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
		return
	}

	idx := len(f.bodies) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	w.Write([]byte(f.responses[idx]))
}

type recordingSearcher struct {
	queries []string
	err     error
}

func (s *recordingSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	s.queries = append(s.queries, req.Query)
	if s.err != nil {
		return nil, s.err
	}
	return &search.Response{Results: []search.Result{{Title: "Trend", URL: "https://example.com", Content: "growing"}}}, nil
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	limiter := ratelimit.NewLimiter(ratelimit.Limits{AnthropicRequestsPerMinute: 6000, SearchRequestsPerMinute: 6000})
	return NewClient(config.AnthropicConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		Model:     "claude-test",
		MaxTokens: 1024,
	}, limiter, logger.Nop(), option.WithMaxRetries(0))
}

func TestGenerateWithActiveSearch_RunsToolLoop(t *testing.T) {
	fake := &fakeAnthropic{responses: []string{toolUseResponse, finalResponse}}
	searcher := &recordingSearcher{}
	client := newTestClient(t, fake).WithSearcher(searcher, 3)

	out, err := client.GenerateWithActiveSearch(context.Background(), SearchGeneration{
		Prompt:              "build the protocol",
		SessionID:           "s1",
		MaxSearchIterations: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"title": "Protocol"}`, out)
	assert.Equal(t, []string{"webinar launch trends"}, searcher.queries)

	require.Len(t, fake.bodies, 2)
	assert.Contains(t, fake.bodies[0], webSearchToolName)
	assert.Contains(t, fake.bodies[1], "tool_result")
	assert.Contains(t, fake.bodies[1], "toolu_1")
	assert.Contains(t, fake.bodies[1], "The search budget is exhausted")
}

func TestGenerateWithActiveSearch_SearchFailureIsReportedToModel(t *testing.T) {
	fake := &fakeAnthropic{responses: []string{toolUseResponse, finalResponse}}
	searcher := &recordingSearcher{err: errors.New("provider down")}
	client := newTestClient(t, fake).WithSearcher(searcher, 3)

	out, err := client.GenerateWithActiveSearch(context.Background(), SearchGeneration{
		Prompt:              "build the protocol",
		MaxSearchIterations: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"title": "Protocol"}`, out)
	require.Len(t, fake.bodies, 2)
	assert.Contains(t, fake.bodies[1], "search failed: provider down")
}

func TestGenerateWithActiveSearch_WithoutSearcher(t *testing.T) {
	fake := &fakeAnthropic{responses: []string{finalResponse}}
	client := newTestClient(t, fake)

	out, err := client.GenerateWithActiveSearch(context.Background(), SearchGeneration{
		Prompt:              "build the protocol",
		MaxSearchIterations: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"title": "Protocol"}`, out)
	require.Len(t, fake.bodies, 1)
	assert.False(t, strings.Contains(fake.bodies[0], webSearchToolName))
}

func TestGenerateWithActiveSearch_APIError(t *testing.T) {
	fake := &fakeAnthropic{status: http.StatusBadRequest}
	client := newTestClient(t, fake)

	_, err := client.GenerateWithActiveSearch(context.Background(), SearchGeneration{Prompt: "x"})
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	fake := &fakeAnthropic{responses: []string{finalResponse}}
	client := newTestClient(t, fake)

	out, err := client.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"title": "Protocol"}`, out)
}

func TestWebSearchToolSchema(t *testing.T) {
	tool := webSearchTool()
	require.NotNil(t, tool.OfTool)
	assert.Equal(t, webSearchToolName, tool.OfTool.Name)
	assert.NotNil(t, tool.OfTool.InputSchema.Properties)
}
