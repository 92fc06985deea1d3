package report

import (
	"fmt"
	"strings"

	"github.com/cpl-agent/internal/models"
)

// CPL report file base name
const CPLReportName = "cpl_resumo"

// FlowMarkdown renders the executive summary of a CPL flow result
func FlowMarkdown(result *models.FlowResult) string {
	var b strings.Builder
	s := result.Summary

	fmt.Fprintf(&b, "# %s\n\n", orDash(s.ProtocolTitle))
	fmt.Fprintf(&b, "- Session: `%s`\n", result.Validation.SessionID)
	fmt.Fprintf(&b, "- Structure valid: %t\n", result.Validation.IsValid)
	if status := result.Metadata.GenerationStatus; status != "" {
		fmt.Fprintf(&b, "- Generation: %s\n", status)
	}
	if s.Error != "" {
		fmt.Fprintf(&b, "\n> **Error:** %s\n", escape(s.Error))
		return b.String()
	}

	b.WriteString("\n## Executive summary\n\n")
	b.WriteString("| Item | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Phases | %d |\n", s.TotalPhases)
	fmt.Fprintf(&b, "| Main strategy | %s |\n", orDash(s.MainStrategy))
	fmt.Fprintf(&b, "| Recommended event | %s |\n", orDash(s.RecommendedEvent))
	fmt.Fprintf(&b, "| Bonuses | %d |\n", s.TotalBonuses)
	fmt.Fprintf(&b, "| Guarantees | %d |\n", s.TotalGuarantees)
	fmt.Fprintf(&b, "| Complexity | %s |\n", orDash(s.ComplexityLevel))
	fmt.Fprintf(&b, "| Implementation time | %s |\n", orDash(s.EstimatedImplementation))

	if p := result.Protocol; p != nil && len(p.FinalConsiderations.NextSteps) > 0 {
		b.WriteString("\n## Next steps\n\n")
		for _, step := range p.FinalConsiderations.NextSteps {
			fmt.Fprintf(&b, "- %s\n", escape(step))
		}
	}
	return b.String()
}
