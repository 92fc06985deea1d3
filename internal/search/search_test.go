package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpl-agent/pkg/logger"
)

type stubSearcher struct {
	calls   int
	results []Result
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, req *Request) (*Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return &Response{Results: out}, nil
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestCacheKey_Normalizes(t *testing.T) {
	a := CacheKey(&Request{Query: "  Launch Webinar ", MaxResults: 5})
	b := CacheKey(&Request{Query: "launch webinar", MaxResults: 5})
	c := CacheKey(&Request{Query: "launch webinar", MaxResults: 3})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "cpl:search:"))
}

func TestCachedSearcher_ServesRepeatedQueries(t *testing.T) {
	stub := &stubSearcher{results: []Result{{Title: "a", URL: "https://a"}}}
	cached := NewCachedSearcher(stub, &memKV{data: map[string][]byte{}}, time.Hour, logger.Nop())
	ctx := context.Background()

	first, err := cached.Search(ctx, &Request{Query: "q"})
	require.NoError(t, err)
	second, err := cached.Search(ctx, &Request{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, first.Results, second.Results)
}

func TestCachedSearcher_PropagatesErrors(t *testing.T) {
	stub := &stubSearcher{err: errors.New("boom")}
	cached := NewCachedSearcher(stub, &memKV{data: map[string][]byte{}}, time.Hour, logger.Nop())

	_, err := cached.Search(context.Background(), &Request{Query: "q"})
	assert.Error(t, err)
}

func TestEnricher_FillsShortSnippets(t *testing.T) {
	stub := &stubSearcher{results: []Result{
		{URL: "https://short", Content: "tiny"},
		{URL: "https://long", Content: strings.Repeat("x", 50)},
		{URL: "https://broken", Content: "tiny"},
	}}

	var fetched []string
	e := NewEnricher(stub, 20, time.Second, 5, logger.Nop()).WithFetch(func(url string, timeout time.Duration) (string, error) {
		fetched = append(fetched, url)
		if url == "https://broken" {
			return "", errors.New("unreachable")
		}
		return "full page text", nil
	})

	resp, err := e.Search(context.Background(), &Request{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://short", "https://broken"}, fetched)
	assert.Equal(t, "full ", resp.Results[0].PageText)
	assert.Empty(t, resp.Results[1].PageText)
	assert.Empty(t, resp.Results[2].PageText)
}

func TestEnricher_Disabled(t *testing.T) {
	stub := &stubSearcher{results: []Result{{URL: "https://short", Content: "tiny"}}}
	e := NewEnricher(stub, 0, time.Second, 0, logger.Nop()).WithFetch(func(string, time.Duration) (string, error) {
		t.Fatal("fetch must not be called")
		return "", nil
	})

	_, err := e.Search(context.Background(), &Request{Query: "q"})
	require.NoError(t, err)
}
