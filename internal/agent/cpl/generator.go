package cpl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cpl-agent/internal/ai"
	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/metrics"
	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/internal/storage"
	"github.com/cpl-agent/pkg/logger"
)

// DefaultMaxSearchIterations is the search budget of one protocol generation
const DefaultMaxSearchIterations = 2

// Module name recorded in flow metadata
const ModuleName = "CPL Creator"

// Protocol titles of the degraded variants
const (
	fallbackTitle       = "Devastating CPL Protocol"
	fallbackDescription = "Protocol generated from the available strategic data"
	errorTitle          = "CPL Protocol - Generation Error"
	notApplicable       = "Not applicable"
)

var degradedNextSteps = []string{"check error logs", "regenerate the module"}

// ActiveSearcher generates text with optional web search rounds
type ActiveSearcher interface {
	GenerateWithActiveSearch(ctx context.Context, req ai.SearchGeneration) (string, error)
}

// Tracker receives the summary of each completed flow
type Tracker interface {
	AppendFlow(ctx context.Context, result *models.FlowResult) error
}

// Generator produces CPL protocols and runs the full CPL flow
type Generator struct {
	ai            ActiveSearcher
	steps         storage.StepStore
	tracker       Tracker
	language      string
	maxIterations int
	systemVersion string
	log           *logger.Logger
}

// NewGenerator creates a new CPL generator
func NewGenerator(aiClient ActiveSearcher, steps storage.StepStore, cfg config.GeneratorConfig, log *logger.Logger) *Generator {
	maxIterations := cfg.MaxSearchIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxSearchIterations
	}
	language := cfg.Language
	if language == "" {
		language = "English"
	}
	return &Generator{
		ai:            aiClient,
		steps:         steps,
		language:      language,
		maxIterations: maxIterations,
		systemVersion: cfg.SystemVersion,
		log:           log.WithComponent("cpl"),
	}
}

// WithTracker pushes every completed flow summary to t
func (g *Generator) WithTracker(t Tracker) *Generator {
	g.tracker = t
	return g
}

// Generate builds the protocol for a session. It never fails: a response that is not a
// JSON object yields the fallback protocol and any other failure yields the error protocol
// Every outcome is written to session storage
func (g *Generator) Generate(ctx context.Context, sessionID string, synthesis, persona, strategicContext, webData map[string]any) *models.Protocol {
	log := g.log.WithSession(sessionID)
	log.Info().Msg("Generating CPL protocol")

	protocol, err := g.generate(ctx, log, sessionID, synthesis, persona, strategicContext, webData)
	if err != nil {
		log.Error().Err(err).Msg("CPL generation failed")
		metrics.IncProtocolGeneration(string(models.GenerationError))

		record := map[string]string{"error": err.Error()}
		if saveErr := g.steps.SaveStep(ctx, sessionID, models.CategoryMainModules, models.StepCPLError, record); saveErr != nil {
			log.Error().Err(saveErr).Msg("Failed to save CPL error step")
		}
		return ErrorProtocol(err)
	}

	metrics.IncProtocolGeneration(string(protocol.Status))
	return protocol
}

func (g *Generator) generate(ctx context.Context, log *logger.Logger, sessionID string, synthesis, persona, strategicContext, webData map[string]any) (*models.Protocol, error) {
	genCtx := BuildContext(synthesis, persona, strategicContext, webData)
	contextJSON, err := json.MarshalIndent(genCtx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation context: %w", err)
	}

	response, err := g.ai.GenerateWithActiveSearch(ctx, ai.SearchGeneration{
		Prompt:              fmt.Sprintf(ai.CPLProtocolPrompt, contextJSON, g.language),
		Context:             string(contextJSON),
		SessionID:           sessionID,
		MaxSearchIterations: g.maxIterations,
	})
	if err != nil {
		return nil, fmt.Errorf("active search generation failed: %w", err)
	}

	protocol, err := models.ParseProtocol([]byte(ai.ExtractJSON(response)))
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse CPL protocol, using fallback")
		protocol = FallbackProtocol()
	} else {
		log.Info().
			Int("phases", protocol.Phases.Count()).
			Msg("CPL protocol generated")
	}

	if err := g.steps.SaveStep(ctx, sessionID, models.CategoryMainModules, models.StepCPLComplete, protocol); err != nil {
		return nil, fmt.Errorf("failed to save protocol: %w", err)
	}
	return protocol, nil
}

// FallbackProtocol is returned when the model output is not a JSON object
func FallbackProtocol() *models.Protocol {
	return models.NewProtocol(fallbackTitle, fallbackDescription, degradedConsiderations(), models.GenerationParseFallback)
}

// ErrorProtocol is returned when generation fails; its description carries the cause
func ErrorProtocol(cause error) *models.Protocol {
	description := fmt.Sprintf("The complete protocol could not be generated: %v", cause)
	return models.NewProtocol(errorTitle, description, degradedConsiderations(), models.GenerationError)
}

func degradedConsiderations() models.FinalConsiderations {
	return models.FinalConsiderations{
		ExpectedImpact:  notApplicable,
		Differentiators: []string{},
		NextSteps:       append([]string(nil), degradedNextSteps...),
	}
}
