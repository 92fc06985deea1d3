package viral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cpl-agent/internal/browser"
	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/metrics"
	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/internal/research"
	"github.com/cpl-agent/internal/storage"
	"github.com/cpl-agent/pkg/logger"
)

// Session files written by the analyzer
const (
	SummaryFileName = "analise_viral_resumo.json"
	ErrorFileName   = "analise_viral_erro.json"
)

// DefaultMaxCaptures is used when Analyze is called with maxCaptures <= 0
const DefaultMaxCaptures = 15

// Settings configures an Analyzer
type Settings struct {
	SessionRoot   string
	FilesRoot     string
	Enabled       bool
	MaxCaptures   int
	MaxCandidates int
	MinBytes      int64
	Timings       Timings
}

// SettingsFromConfig maps application config to analyzer settings
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		SessionRoot:   cfg.Sessions.Root,
		FilesRoot:     cfg.Sessions.FilesRoot,
		Enabled:       cfg.Capture.Enabled,
		MaxCaptures:   cfg.Capture.MaxCaptures,
		MaxCandidates: cfg.Capture.MaxCandidates,
		MinBytes:      cfg.Capture.MinBytes,
		Timings: Timings{
			BodyTimeout:  cfg.Capture.BodyTimeout,
			PageSettle:   cfg.Capture.PageSettle,
			ClickTimeout: cfg.Capture.ClickTimeout,
			ModalTimeout: cfg.Capture.ModalTimeout,
			ModalSettle:  cfg.Capture.ModalSettle,
		},
	}
}

// Analyzer ranks the viral posts of a session and captures screenshots of them
type Analyzer struct {
	settings  Settings
	launcher  browser.Launcher
	selectors *SelectorSet
	steps     storage.StepStore
	logger    *logger.Logger
}

// NewAnalyzer creates an analyzer. A nil selector set uses DefaultSelectors
func NewAnalyzer(settings Settings, launcher browser.Launcher, selectors *SelectorSet, log *logger.Logger) *Analyzer {
	if selectors == nil {
		selectors = DefaultSelectors()
	}
	if settings.MaxCaptures <= 0 {
		settings.MaxCaptures = DefaultMaxCaptures
	}
	if settings.MaxCandidates <= 0 {
		settings.MaxCandidates = DefaultMaxCandidates
	}
	return &Analyzer{
		settings:  settings,
		launcher:  launcher,
		selectors: selectors,
		logger:    log.WithComponent("viral_analyzer"),
	}
}

// WithStepStore also records each summary as a session step
func (a *Analyzer) WithStepStore(steps storage.StepStore) *Analyzer {
	a.steps = steps
	return a
}

// Analyze loads the session research file, ranks its social and YouTube results, captures
// screenshots of the top candidates and writes the summary file. Degraded inputs (missing
// research file, unavailable browser, failed captures) are logged and never returned as
// errors. Any other failure is written to the session error file and returned
func (a *Analyzer) Analyze(ctx context.Context, searchQuery, sessionID string, maxCaptures int) (*models.AnalysisResult, error) {
	log := a.logger.WithSession(sessionID)
	log.Info().Str("query", searchQuery).Msg("Starting viral content analysis")

	result, err := a.analyze(ctx, log, searchQuery, sessionID, maxCaptures)
	metrics.ObserveViralAnalysis(err)
	if err != nil {
		log.Error().Err(err).Msg("Viral content analysis failed")
		a.persistError(log, searchQuery, sessionID, err)
		return nil, err
	}
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, log *logger.Logger, searchQuery, sessionID string, maxCaptures int) (*models.AnalysisResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if maxCaptures <= 0 {
		maxCaptures = a.settings.MaxCaptures
	}

	sessionDir := filepath.Join(a.settings.SessionRoot, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	doc, err := research.Load(a.settings.SessionRoot, sessionID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Msg("No research file for session, continuing with no candidates")
		} else {
			log.Error().Err(err).Msg("Failed to load research file, continuing with no candidates")
		}
		doc = map[string]any{}
	}

	social := research.Records(doc, models.ResearchSocialResults)
	youtube := research.Records(doc, models.ResearchYouTubeResults)
	combined := append(social, youtube...)
	log.Info().
		Int("social", len(social)).
		Int("youtube", len(youtube)).
		Msg("Combined research results")

	ranked := Rank(combined, a.settings.MaxCandidates)
	log.Info().Int("candidates", len(ranked)).Msg("Viral content identified")

	screenshots := a.captureAll(ctx, log, ranked, sessionID, maxCaptures)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	identified := make([]map[string]any, 0, len(ranked))
	for _, c := range ranked {
		identified = append(identified, c.Data)
	}

	result := &models.AnalysisResult{
		SessionID:              sessionID,
		SearchQuery:            searchQuery,
		AnalysisTimestamp:      time.Now(),
		ViralContentIdentified: identified,
		ScreenshotsCaptured:    screenshots,
		Summary: models.AnalysisSummary{
			TotalSocialItemsAnalyzed: len(combined),
			ViralContentFound:        len(ranked),
			ScreenshotsTaken:         len(screenshots),
		},
	}

	if err := writeJSON(filepath.Join(sessionDir, SummaryFileName), result); err != nil {
		log.Error().Err(err).Msg("Failed to save viral analysis summary")
	}
	if a.steps != nil {
		if err := a.steps.SaveStep(ctx, sessionID, models.CategoryMainModules, models.StepViralSummary, result); err != nil {
			log.Warn().Err(err).Msg("Failed to record viral analysis step")
		}
	}

	log.Info().
		Int("screenshots", len(screenshots)).
		Msg("Viral content analysis completed")

	return result, nil
}

// captureAll drives one shared browser through the ranked candidates until maxCaptures
// screenshots are saved. The browser is always closed
func (a *Analyzer) captureAll(ctx context.Context, log *logger.Logger, ranked []models.ViralCandidate, sessionID string, maxCaptures int) []models.ScreenshotRecord {
	screenshots := make([]models.ScreenshotRecord, 0)
	if len(ranked) == 0 {
		log.Info().Msg("No viral content to capture")
		return screenshots
	}
	if !a.settings.Enabled || a.launcher == nil {
		log.Info().Msg("Screenshot capture disabled")
		return screenshots
	}

	filesDir := filepath.Join(a.settings.FilesRoot, sessionID)
	if err := os.MkdirAll(filesDir, 0755); err != nil {
		log.Error().Err(err).Msg("Failed to create screenshot directory")
		return screenshots
	}

	b, err := a.launcher.Launch(ctx)
	if err != nil {
		if errors.Is(err, browser.ErrUnavailable) {
			log.Error().Err(err).Msg("Browser automation unavailable, no screenshots taken")
		} else {
			log.Error().Err(err).Msg("Failed to start browser, no screenshots taken")
		}
		return screenshots
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	c := &capturer{
		browser:   b,
		selectors: a.selectors,
		timings:   a.settings.Timings,
		minBytes:  a.settings.MinBytes,
		filesDir:  filesDir,
		sessionID: sessionID,
		logger:    log,
	}

	for i, cand := range ranked {
		if len(screenshots) >= maxCaptures {
			log.Info().Int("max_captures", maxCaptures).Msg("Capture limit reached")
			break
		}
		if ctx.Err() != nil {
			break
		}

		index := i + 1
		record, err := c.capture(ctx, cand, index)
		if err != nil {
			log.Warn().
				Err(err).
				Int("candidate", index).
				Str("url", cand.URL).
				Msg("Capture failed")
			continue
		}
		screenshots = append(screenshots, *record)
		log.Info().
			Int("candidate", index).
			Str("file", record.Filename).
			Str("method", string(record.CaptureMethod)).
			Msg("Screenshot captured")
	}

	return screenshots
}

// persistError writes the error record next to the session files. Failures are only logged
func (a *Analyzer) persistError(log *logger.Logger, searchQuery, sessionID string, cause error) {
	if sessionID == "" {
		return
	}

	record := &models.AnalysisResult{
		SessionID:              sessionID,
		SearchQuery:            searchQuery,
		AnalysisTimestamp:      time.Now(),
		ViralContentIdentified: []map[string]any{},
		ScreenshotsCaptured:    []models.ScreenshotRecord{},
		Summary: models.AnalysisSummary{
			CriticalError: cause.Error(),
		},
		Error:        true,
		ErrorMessage: cause.Error(),
	}

	sessionDir := filepath.Join(a.settings.SessionRoot, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		log.Error().Err(err).Msg("Failed to save viral analysis error")
		return
	}
	if err := writeJSON(filepath.Join(sessionDir, ErrorFileName), record); err != nil {
		log.Error().Err(err).Msg("Failed to save viral analysis error")
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
