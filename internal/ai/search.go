package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"

	"github.com/cpl-agent/internal/metrics"
	"github.com/cpl-agent/internal/search"
	"github.com/cpl-agent/pkg/ratelimit"
)

const webSearchToolName = "web_search"

// SearchGeneration is a generation request that may consult the web
type SearchGeneration struct {
	Prompt              string
	Context             string // extra system context, optional
	SessionID           string
	MaxSearchIterations int
}

type webSearchInput struct {
	Query      string `json:"query" jsonschema:"required,description=Search query in the language of the market being researched"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results (1 to 10)"`
}

// toolInputSchema reflects a tool input struct into an Anthropic input schema
func toolInputSchema(v any) anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(v)
	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
}

func webSearchTool() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        webSearchToolName,
			Description: anthropic.String("Search the web for recent market data, competitor offers, trends and real success cases."),
			InputSchema: toolInputSchema(&webSearchInput{}),
		},
	}
}

// GenerateWithActiveSearch runs a tool-use loop in which the model may call web_search
// for up to MaxSearchIterations rounds before it must answer. It returns the text of the
// final message
func (c *Client) GenerateWithActiveSearch(ctx context.Context, req SearchGeneration) (string, error) {
	log := c.log.WithSession(req.SessionID)

	system := []anthropic.TextBlockParam{{Type: "text", Text: ActiveSearchSystemPrompt}}
	if req.Context != "" {
		system = append(system, anthropic.TextBlockParam{Type: "text", Text: req.Context})
	}
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}

	searches := 0
	for round := 0; ; round++ {
		budgetSpent := round >= req.MaxSearchIterations

		params := anthropic.MessageNewParams{
			System:   system,
			Messages: messages,
		}
		if c.searcher != nil {
			params.Tools = []anthropic.ToolUnionParam{webSearchTool()}
			if budgetSpent {
				params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
			}
		}

		message, err := c.send(ctx, params)
		if err != nil {
			return "", err
		}

		if c.searcher == nil || budgetSpent || message.StopReason != anthropic.StopReasonToolUse {
			text := textOf(message)
			if text == "" {
				return "", fmt.Errorf("empty response from model (stop reason %s)", message.StopReason)
			}
			log.Info().
				Int("rounds", round+1).
				Int("searches", searches).
				Msg("Active search generation finished")
			return text, nil
		}

		messages = append(messages, message.ToParam())

		var results []anthropic.ContentBlockParamUnion
		for _, block := range message.Content {
			if block.Type != "tool_use" {
				continue
			}
			content, isErr := c.runTool(ctx, block.Name, block.Input)
			if !isErr {
				searches++
			}
			results = append(results, anthropic.NewToolResultBlock(block.ID, content, isErr))
		}
		if round+1 >= req.MaxSearchIterations {
			results = append(results, anthropic.NewTextBlock(FinalAnswerInstruction))
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}
}

// runTool executes a tool call and returns its content and whether it failed
// Tool failures are reported to the model rather than aborting the generation
func (c *Client) runTool(ctx context.Context, name string, input json.RawMessage) (string, bool) {
	if name != webSearchToolName {
		return fmt.Sprintf("unknown tool %q", name), true
	}

	var in webSearchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return fmt.Sprintf("invalid tool input: %v", err), true
	}
	if in.Query == "" {
		return "query is required", true
	}

	maxResults := in.MaxResults
	if maxResults <= 0 || maxResults > 10 {
		maxResults = c.maxResults
	}

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterSearch); err != nil {
			return fmt.Sprintf("search rate limit: %v", err), true
		}
	}

	resp, err := c.searcher.Search(ctx, &search.Request{Query: in.Query, MaxResults: maxResults})
	metrics.ObserveSearch(err)
	if err != nil {
		c.log.Warn().Err(err).Str("query", in.Query).Msg("Web search failed")
		return fmt.Sprintf("search failed: %v", err), true
	}

	c.log.Debug().
		Str("query", in.Query).
		Int("results", len(resp.Results)).
		Msg("Web search completed")

	data, err := json.Marshal(resp.Results)
	if err != nil {
		return fmt.Sprintf("failed to encode results: %v", err), true
	}
	return string(data), false
}
