package viral

import (
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/cpl-agent/internal/models"
)

// DefaultMaxCandidates caps the ranked list
const DefaultMaxCandidates = 20

// Score keys in order of preference
const (
	keyViralScore     = "viral_score"
	keyEngagementRate = "engagement_rate"
)

// scoreOf returns the numeric score of a record and the raw value it came from
// The first key present wins even when its value is not numeric; such values score 0
func scoreOf(record map[string]any) (float64, any) {
	for _, key := range []string{keyViralScore, keyEngagementRate} {
		if raw, ok := record[key]; ok {
			return toScore(raw), raw
		}
	}
	return 0, nil
}

func toScore(raw any) float64 {
	if raw == nil {
		return 0
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Rank orders records by score descending (stable), drops records without a URL and
// duplicate URLs, and keeps at most limit candidates
func Rank(records []map[string]any, limit int) []models.ViralCandidate {
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}

	candidates := make([]models.ViralCandidate, 0, len(records))
	for _, record := range records {
		score, raw := scoreOf(record)
		platform := strings.ToLower(cast.ToString(record["platform"]))
		if platform == "" {
			platform = "web"
		}
		candidates = append(candidates, models.ViralCandidate{
			URL:      cast.ToString(record["url"]),
			Platform: platform,
			Title:    cast.ToString(record["title"]),
			Score:    score,
			RawScore: raw,
			Data:     record,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	ranked := make([]models.ViralCandidate, 0, min(limit, len(candidates)))
	seen := make(map[string]bool)
	for _, c := range candidates {
		if len(ranked) >= limit {
			break
		}
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		ranked = append(ranked, c)
	}
	return ranked
}
