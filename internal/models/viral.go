package models

import "time"

// Research file keys read by the viral analyzer
const (
	ResearchSocialResults  = "social_results"
	ResearchYouTubeResults = "youtube_results"
	ResearchRSSResults     = "rss_results"
	ResearchWebData        = "web_data"
)

// CaptureMethod tells how a screenshot was taken
type CaptureMethod string

const (
	CaptureExpanded CaptureMethod = "expanded_view"
	CaptureFullPage CaptureMethod = "full_page"
)

// ViralCandidate is one social post considered for capture
type ViralCandidate struct {
	URL      string
	Platform string
	Title    string
	Score    float64        // numeric score used for ranking
	RawScore any            // value of viral_score or engagement_rate as found in the record
	Data     map[string]any // the research record as loaded
}

// ScreenshotRecord describes one saved, size-validated screenshot
type ScreenshotRecord struct {
	ContentData    map[string]any `json:"content_data"`
	ScreenshotPath string         `json:"screenshot_path"`
	RelativePath   string         `json:"relative_path"`
	Filename       string         `json:"filename"`
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Platform       string         `json:"platform"`
	ViralScore     float64        `json:"viral_score"`
	CapturedAt     time.Time      `json:"captured_at"`
	CaptureMethod  CaptureMethod  `json:"capture_method"`
}

// AnalysisSummary holds the counts of an analysis run
type AnalysisSummary struct {
	TotalSocialItemsAnalyzed int    `json:"total_social_items_analyzed"`
	ViralContentFound        int    `json:"viral_content_found"`
	ScreenshotsTaken         int    `json:"screenshots_taken"`
	CriticalError            string `json:"critical_error,omitempty"`
}

// AnalysisResult is the outcome of a viral analysis run
type AnalysisResult struct {
	SessionID              string             `json:"session_id"`
	SearchQuery            string             `json:"search_query"`
	AnalysisTimestamp      time.Time          `json:"analysis_timestamp"`
	ViralContentIdentified []map[string]any   `json:"viral_content_identified"`
	ScreenshotsCaptured    []ScreenshotRecord `json:"screenshots_captured"`
	Summary                AnalysisSummary    `json:"summary"`
	Error                  bool               `json:"error,omitempty"`
	ErrorMessage           string             `json:"error_message,omitempty"`
}
