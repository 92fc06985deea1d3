package cpl

import (
	"strings"

	"github.com/cpl-agent/internal/models"
)

const (
	notSpecified            = "Not specified"
	estimatedImplementation = "7-14 days"
)

// Complexity tier thresholds on the number of counted elements
const (
	highComplexityAbove = 20
	lowComplexityBelow  = 10
)

// Summarize projects a protocol into its executive summary. A nil protocol yields a summary
// with Error set
func Summarize(p *models.Protocol) models.ExecutiveSummary {
	if p == nil {
		return models.ExecutiveSummary{Error: "protocol is missing"}
	}

	summary := models.ExecutiveSummary{
		ProtocolTitle:           orNotSpecified(p.Title),
		TotalPhases:             p.Phases.Count(),
		MainStrategy:            notSpecified,
		EstimatedImplementation: estimatedImplementation,
	}

	phases := p.Phases
	if arch := phases.Architecture; arch != nil {
		summary.MainStrategy = orNotSpecified(arch.Strategy)
		if len(arch.EventVersions) > 0 {
			summary.RecommendedEvent = orNotSpecified(arch.EventVersions[0].EventName)
		}
	}

	summary.TotalBonuses = bonusCount(phases.CPL4)
	if phases.CPL4 != nil {
		summary.TotalGuarantees = len(phases.CPL4.Guarantees)
	}

	counted := summary.TotalBonuses
	if phases.CPL1 != nil {
		counted += len(phases.CPL1.Teasers)
	}
	if phases.CPL2 != nil {
		counted += len(phases.CPL2.DetailedCases)
	}
	if phases.CPL3 != nil {
		counted += len(phases.CPL3.Steps)
	}
	summary.ComplexityLevel = complexity(counted)

	return summary
}

func complexity(counted int) string {
	switch {
	case counted > highComplexityAbove:
		return models.ComplexityHigh
	case counted < lowComplexityBelow:
		return models.ComplexityLow
	default:
		return models.ComplexityMedium
	}
}

func orNotSpecified(s string) string {
	if s == "" {
		return notSpecified
	}
	return s
}

// bonusCount counts the value stack entries keyed bonus_*
func bonusCount(p *models.DecisionPhase) int {
	if p == nil {
		return 0
	}
	n := 0
	for key := range p.ValueStack {
		if strings.HasPrefix(key, "bonus_") {
			n++
		}
	}
	return n
}
