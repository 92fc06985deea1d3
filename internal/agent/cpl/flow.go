package cpl

import (
	"context"
	"fmt"
	"time"

	"github.com/cpl-agent/internal/models"
)

// RunFullFlow generates, validates and summarizes the protocol of a session, then records
// the flow result. It never fails: when the flow record cannot be saved a degraded result
// is returned instead
func (g *Generator) RunFullFlow(ctx context.Context, sessionID string, synthesis, persona, strategicContext, webData map[string]any) *models.FlowResult {
	log := g.log.WithSession(sessionID)
	log.Info().Msg("Running full CPL flow")

	protocol := g.Generate(ctx, sessionID, synthesis, persona, strategicContext, webData)
	valid := Validate(protocol, log)
	summary := Summarize(protocol)

	result := &models.FlowResult{
		Protocol: protocol,
		Validation: models.FlowValidation{
			IsValid:   valid,
			Timestamp: time.Now(),
			SessionID: sessionID,
		},
		Summary: summary,
		Metadata: models.FlowMetadata{
			SystemVersion:        g.systemVersion,
			Module:               ModuleName,
			TotalPhasesGenerated: protocol.Phases.Count(),
			ContextUsed: &models.ContextUsage{
				Synthesis:        len(synthesis) > 0,
				Persona:          len(persona) > 0,
				StrategicContext: len(strategicContext) > 0,
				WebData:          len(webData) > 0,
			},
			GenerationStatus: string(protocol.Status),
		},
	}

	if err := g.steps.SaveStep(ctx, sessionID, models.CategoryMainModules, models.StepCPLFlow, result); err != nil {
		log.Error().Err(err).Msg("Full CPL flow failed")
		return g.degradedFlow(sessionID, fmt.Errorf("failed to save flow result: %w", err))
	}

	if g.tracker != nil {
		if err := g.tracker.AppendFlow(ctx, result); err != nil {
			log.Warn().Err(err).Msg("Failed to push flow summary to tracker")
		}
	}

	log.Info().
		Bool("valid", valid).
		Int("phases", result.Metadata.TotalPhasesGenerated).
		Msg("Full CPL flow completed")
	return result
}

func (g *Generator) degradedFlow(sessionID string, cause error) *models.FlowResult {
	return &models.FlowResult{
		Protocol: &models.Protocol{},
		Validation: models.FlowValidation{
			IsValid:   false,
			Timestamp: time.Now(),
			SessionID: sessionID,
			Error:     cause.Error(),
		},
		Summary: models.ExecutiveSummary{Error: cause.Error()},
		Metadata: models.FlowMetadata{
			SystemVersion: g.systemVersion,
			Module:        ModuleName,
			Status:        "error",
		},
	}
}
