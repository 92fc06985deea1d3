package viral

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cpl-agent/internal/browser"
	"github.com/cpl-agent/internal/metrics"
	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/pkg/logger"
)

// defaultTitleFormat names a candidate without a title
const defaultTitleFormat = "Viral Content %d"

// Timings of one capture attempt
type Timings struct {
	BodyTimeout  time.Duration
	PageSettle   time.Duration
	ClickTimeout time.Duration
	ModalTimeout time.Duration
	ModalSettle  time.Duration
}

// capturer takes the screenshots of one analysis run
type capturer struct {
	browser   browser.Browser
	selectors *SelectorSet
	timings   Timings
	minBytes  int64
	filesDir  string
	sessionID string
	logger    *logger.Logger
}

// capture tries the expanded view first for expandable platforms, then the full page
func (c *capturer) capture(ctx context.Context, cand models.ViralCandidate, index int) (*models.ScreenshotRecord, error) {
	log := c.logger.WithCandidate(index, cand.Platform)

	if expand, ok := c.selectors.ExpandFor(cand.Platform); ok {
		record, err := c.attempt(ctx, cand, index, models.CaptureExpanded, expand)
		if err == nil {
			return record, nil
		}
		log.Debug().Err(err).Str("url", cand.URL).Msg("Expanded capture failed, trying full page")
	}

	return c.attempt(ctx, cand, index, models.CaptureFullPage, nil)
}

// attempt runs NAVIGATE, WAIT_FOR_BODY, SETTLE, the optional expand steps, then
// SAVE_SCREENSHOT and VALIDATE_SIZE
func (c *capturer) attempt(ctx context.Context, cand models.ViralCandidate, index int, method models.CaptureMethod, expand []string) (record *models.ScreenshotRecord, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveCapture(string(method), start, err == nil)
	}()

	if err := c.browser.Navigate(ctx, cand.URL); err != nil {
		return nil, err
	}
	if err := c.browser.WaitReady(ctx, "body", c.timings.BodyTimeout); err != nil {
		return nil, fmt.Errorf("page body not ready: %w", err)
	}
	if err := sleep(ctx, c.timings.PageSettle); err != nil {
		return nil, err
	}

	if method == models.CaptureExpanded {
		c.expand(ctx, expand, index)
	}

	filename := screenshotName(method, index)
	target := filepath.Join(c.filesDir, filename)

	if err := c.browser.Screenshot(ctx, target); err != nil {
		os.Remove(target)
		return nil, err
	}
	if err := c.validate(target); err != nil {
		return nil, err
	}

	return &models.ScreenshotRecord{
		ContentData:    cand.Data,
		ScreenshotPath: target,
		RelativePath:   path.Join("files", c.sessionID, filename),
		Filename:       filename,
		URL:            cand.URL,
		Title:          titleOrDefault(cand.Title, index),
		Platform:       cand.Platform,
		ViralScore:     cand.Score,
		CapturedAt:     time.Now(),
		CaptureMethod:  method,
	}, nil
}

// expand clicks the first matching expand selector and waits for the enlarged image
// Every step is best effort
func (c *capturer) expand(ctx context.Context, selectors []string, index int) {
	sel, clicked := ClickFirst(ctx, c.browser, selectors, c.timings.ClickTimeout)
	if !clicked {
		return
	}
	c.logger.Debug().Int("candidate", index).Str("selector", sel).Msg("Clicked expand selector")

	if err := c.browser.WaitReady(ctx, c.selectors.ModalQuery(), c.timings.ModalTimeout); err != nil {
		c.logger.Debug().Int("candidate", index).Msg("Expanded image not detected, capturing current view")
		return
	}
	sleep(ctx, c.timings.ModalSettle)
}

// validate deletes screenshots at or below the size threshold
func (c *capturer) validate(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("screenshot not saved: %w", err)
	}
	if info.Size() <= c.minBytes {
		os.Remove(target)
		return fmt.Errorf("screenshot %s too small (%d bytes)", filepath.Base(target), info.Size())
	}
	return nil
}

func screenshotName(method models.CaptureMethod, index int) string {
	if method == models.CaptureExpanded {
		return fmt.Sprintf("viral_post_%02d.png", index)
	}
	return fmt.Sprintf("viral_web_%02d.png", index)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// titleOrDefault names untitled candidates by their ranked position
func titleOrDefault(title string, index int) string {
	if strings.TrimSpace(title) == "" {
		return fmt.Sprintf(defaultTitleFormat, index)
	}
	return title
}
