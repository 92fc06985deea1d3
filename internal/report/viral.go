package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/cpl-agent/internal/models"
)

// Viral report file base name, written next to the session summary
const ViralReportName = "analise_viral_relatorio"

// LoadAnalysis reads a viral analysis summary file
func LoadAnalysis(file string) (*models.AnalysisResult, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis: %w", err)
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return &result, nil
}

// ViralMarkdown renders an analysis as Markdown. Screenshot links are the records'
// relative paths prefixed with linkBase
func ViralMarkdown(result *models.AnalysisResult, linkBase string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Viral content analysis\n\n")
	fmt.Fprintf(&b, "- Session: `%s`\n", result.SessionID)
	fmt.Fprintf(&b, "- Query: %s\n", orDash(result.SearchQuery))
	if !result.AnalysisTimestamp.IsZero() {
		fmt.Fprintf(&b, "- Analyzed at: %s\n", result.AnalysisTimestamp.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "- Items analyzed: %d\n", result.Summary.TotalSocialItemsAnalyzed)
	fmt.Fprintf(&b, "- Viral content found: %d\n", result.Summary.ViralContentFound)
	fmt.Fprintf(&b, "- Screenshots taken: %d\n", result.Summary.ScreenshotsTaken)
	if result.ErrorMessage != "" {
		fmt.Fprintf(&b, "\n> **Error:** %s\n", escape(result.ErrorMessage))
	}

	if len(result.ScreenshotsCaptured) == 0 {
		b.WriteString("\nNo screenshots were captured.\n")
		return b.String()
	}

	b.WriteString("\n## Screenshots\n")
	for i, shot := range result.ScreenshotsCaptured {
		title := shot.Title
		if title == "" {
			title = shot.URL
		}
		fmt.Fprintf(&b, "\n### %d. %s\n\n", i+1, escape(title))
		fmt.Fprintf(&b, "| Platform | Score | Capture |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| %s | %.2f | %s |\n\n", orDash(shot.Platform), shot.ViralScore, shot.CaptureMethod)
		fmt.Fprintf(&b, "![%s](%s)\n\n", escape(title), path.Join(linkBase, shot.RelativePath))
		fmt.Fprintf(&b, "<%s>\n", shot.URL)
	}
	return b.String()
}
