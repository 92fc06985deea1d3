package viral

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cpl-agent/internal/browser"
)

// PlatformSelectors lists the expand selectors tried for platforms whose name contains Platform
type PlatformSelectors struct {
	Platform  string   `yaml:"platform"`
	Selectors []string `yaml:"selectors"`
}

// SelectorSet is a versioned set of CSS selectors used by expanded captures
// Platforms are matched in order; the first match wins
type SelectorSet struct {
	Version    string              `yaml:"version"`
	Expand     []PlatformSelectors `yaml:"expand"`
	ModalImage []string            `yaml:"modal_image"`
}

// DefaultSelectors returns the built-in selector set
func DefaultSelectors() *SelectorSet {
	return &SelectorSet{
		Version: "builtin-1",
		Expand: []PlatformSelectors{
			{
				Platform: "instagram",
				Selectors: []string{
					"button[aria-label='Ver foto']",
					"button[aria-label='View photo']",
					"button svg[aria-label='Ver foto']",
					"button svg[aria-label='View photo']",
					"div[role='button'] > div > div[style*='background-image']",
				},
			},
			{
				Platform: "facebook",
				Selectors: []string{
					"div[role='main'] div[data-sigil='mfeed_pivots_message feed-story-highlight-candidate'] img",
					"div[data-pagelet='Feed'] div[data-ad-preview='message'] img",
					"a[href*='/photo.php'] img",
					"a[href*='/photos/'] img",
				},
			},
		},
		ModalImage: []string{
			"div[role='dialog'] img",
			"div[class*='Modal'] img",
			"img[src*='fbcdn']",
			"img[src*='instagram']",
		},
	}
}

// LoadSelectorSet reads a selector set from a YAML file
func LoadSelectorSet(path string) (*SelectorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read selector file: %w", err)
	}

	var set SelectorSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse selector file: %w", err)
	}
	if set.Version == "" {
		return nil, fmt.Errorf("selector file %s has no version", path)
	}
	for _, p := range set.Expand {
		if p.Platform == "" {
			return nil, fmt.Errorf("selector file %s has an expand entry without platform", path)
		}
	}
	if len(set.ModalImage) == 0 {
		set.ModalImage = DefaultSelectors().ModalImage
	}
	return &set, nil
}

// ExpandFor returns the expand selectors for a lowercased platform name and whether
// the platform gets an expanded capture attempt at all
func (s *SelectorSet) ExpandFor(platform string) ([]string, bool) {
	for _, p := range s.Expand {
		if strings.Contains(platform, strings.ToLower(p.Platform)) {
			return p.Selectors, true
		}
	}
	return nil, false
}

// ModalQuery joins the modal image selectors into one CSS selector group
func (s *SelectorSet) ModalQuery() string {
	return strings.Join(s.ModalImage, ", ")
}

// ClickFirst clicks the first selector that becomes clickable within timeout
// Failures are not errors; it returns the selector clicked and whether one was clicked
func ClickFirst(ctx context.Context, b browser.Browser, selectors []string, timeout time.Duration) (string, bool) {
	for _, sel := range selectors {
		if ctx.Err() != nil {
			return "", false
		}
		if err := b.Click(ctx, sel, timeout); err == nil {
			return sel, true
		}
	}
	return "", false
}
