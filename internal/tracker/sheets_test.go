package tracker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/pkg/logger"
)

type fakeSheets struct {
	mu        sync.Mutex
	titles    []string
	addedTabs int
	headers   [][]interface{}
	appended  [][]interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && path == "/v4/spreadsheets/sheet-1":
		var sheets []map[string]any
		for _, title := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.addedTabs++
		io.WriteString(w, `{"spreadsheetId": "sheet-1"}`)
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		io.WriteString(w, `{}`)
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.headers = append(f.headers, decodeValues(r)...)
		io.WriteString(w, `{}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		f.appended = append(f.appended, decodeValues(r)...)
		io.WriteString(w, `{}`)
	default:
		http.NotFound(w, r)
	}
}

func decodeValues(r *http.Request) [][]interface{} {
	var body struct {
		Values [][]interface{} `json:"values"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	return body.Values
}

func newTestTracker(t *testing.T, fake *fakeSheets) *SheetsTracker {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.TrackerConfig{Enabled: true, SpreadsheetID: "sheet-1"}
	tr, err := NewSheetsTracker(context.Background(), cfg, logger.Nop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	require.NotNil(t, tr)
	return tr
}

func TestNewSheetsTracker_Disabled(t *testing.T) {
	tr, err := NewSheetsTracker(context.Background(), config.TrackerConfig{}, logger.Nop())
	assert.NoError(t, err)
	assert.Nil(t, tr)
}

func TestNewSheetsTracker_RequiresCredentials(t *testing.T) {
	_, err := NewSheetsTracker(context.Background(), config.TrackerConfig{Enabled: true, SpreadsheetID: "x"}, logger.Nop())
	assert.Error(t, err)

	_, err = NewSheetsTracker(context.Background(), config.TrackerConfig{Enabled: true}, logger.Nop())
	assert.Error(t, err)
}

func TestInitializeSheet_CreatesSheetAndHeaders(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Other"}}
	tr := newTestTracker(t, fake)

	require.NoError(t, tr.InitializeSheet(context.Background()))

	assert.Equal(t, 1, fake.addedTabs)
	require.Len(t, fake.headers, 1)
	assert.Equal(t, "Session ID", fake.headers[0][0])
	assert.Len(t, fake.headers[0], len(SheetColumns))
}

func TestInitializeSheet_ExistingSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"CPL"}}
	tr := newTestTracker(t, fake)

	require.NoError(t, tr.InitializeSheet(context.Background()))
	assert.Equal(t, 0, fake.addedTabs)
}

func TestAppendFlow(t *testing.T) {
	fake := &fakeSheets{}
	tr := newTestTracker(t, fake)

	result := &models.FlowResult{
		Validation: models.FlowValidation{
			IsValid:   true,
			SessionID: "s1",
			Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Summary: models.ExecutiveSummary{
			ProtocolTitle:   "Launch",
			TotalPhases:     5,
			TotalBonuses:    2,
			ComplexityLevel: models.ComplexityMedium,
		},
		Metadata: models.FlowMetadata{GenerationStatus: "complete"},
	}

	require.NoError(t, tr.AppendFlow(context.Background(), result))

	require.Len(t, fake.appended, 1)
	row := fake.appended[0]
	require.Len(t, row, len(SheetColumns))
	assert.Equal(t, "s1", row[0])
	assert.Equal(t, "2025-03-01T12:00:00Z", row[1])
	assert.Equal(t, "Launch", row[2])
	assert.Equal(t, true, row[3])
	assert.Equal(t, float64(5), row[4])
	assert.Equal(t, "complete", row[10])
}

func TestFlowRow_DegradedResult(t *testing.T) {
	row := flowRow(&models.FlowResult{
		Validation: models.FlowValidation{SessionID: "s1", Error: "disk full"},
		Summary:    models.ExecutiveSummary{Error: "disk full"},
		Metadata:   models.FlowMetadata{Status: "error"},
	})

	assert.Equal(t, "", row[1])
	assert.Equal(t, false, row[3])
	assert.Equal(t, "error", row[10])
	assert.Equal(t, "disk full", row[11])
}
