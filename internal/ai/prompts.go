package ai

// Active search prompts
const (
	ActiveSearchSystemPrompt = `You are a senior direct-response strategist who designs launch sequences built on four pre-launch videos (CPLs).

You have a web_search tool. Use it only to confirm or complete facts that the provided context does not cover: recent market trends, competitor offers and prices, and real success cases. Never invent data. When a fact is not available, say so explicitly.

Your final answer must be a single valid JSON object and nothing else.`

	// FinalAnswerInstruction is sent when the search budget is spent
	FinalAnswerInstruction = `The search budget is exhausted. Do not request more searches. Produce the final JSON object now, using the context and the search results above.`
)

// CPLProtocolPrompt is the instruction template for the CPL protocol
// Arguments: context JSON, output language
const CPLProtocolPrompt = `# SPECIALIZED MODULE: INTEGRATED PROTOCOL FOR HIGH-CONVERSION CPL SEQUENCES

## STRATEGIC CONTEXT
%s

## INSTRUCTIONS

Using ALL of the context above, create an integrated protocol for a sequence of 4 CPLs that converts exceptionally well.
Write every string value in %s. Keep the JSON keys exactly as shown.

### REQUIRED OUTPUT STRUCTURE (RETURN ONLY VALID JSON)

{
  "title": "Impactful protocol title",
  "description": "Protocol description and its strategic impact",
  "phases": {
    "phase_1_architecture": {
      "title": "Magnetic Event Architecture",
      "description": "Overview of the architecture",
      "strategy": "Central strategy of the phase",
      "event_versions": [
        {
          "type": "Aggressive/Polarizing|Aspirational/Inspiring|Urgent/Scarce",
          "event_name": "Magnetic event name",
          "psychological_rationale": "Why this name works",
          "central_promise": "Paralyzing central promise",
          "cpl_mapping": {
            "cpl1": "Psychological mapping of CPL1",
            "cpl2": "Psychological mapping of CPL2",
            "cpl3": "Psychological mapping of CPL3",
            "cpl4": "Psychological mapping of CPL4"
          }
        }
      ],
      "final_recommendation": "Which version to use and why"
    },
    "phase_2_cpl1": {
      "title": "CPL1 - The Paralyzing Opportunity",
      "description": "CPL1 description",
      "teasers": [
        {"text": "Teaser built from EXACT collected phrases", "justification": "Why this phrase works"}
      ],
      "transformation_story": {
        "before": "Starting situation of the avatar (real data)",
        "during": "Transformation process (success cases)",
        "after": "Transforming end result (real data)"
      },
      "open_loops": [
        {"description": "Open loop", "closure_in_cpl4": "How CPL4 closes it"}
      ],
      "pattern_breaks": [
        {"description": "Specific pattern break", "trend_basis": "Trend that supports it"}
      ],
      "social_proofs": [
        {"type": "Kind of social proof", "real_data": "Concrete data if available", "psychological_impact": "Expected impact"}
      ]
    },
    "phase_3_cpl2": {
      "title": "CPL2 - The Impossible Transformation",
      "description": "CPL2 description",
      "detailed_success_cases": [
        {
          "case": "Specific case if available",
          "before_after_expanded": {"before": "With data", "during": "With niche terms", "after": "Quantifiable results"},
          "cinematic_elements": ["Element based on real testimonials"],
          "quantifiable_results": [
            {"metric": "Measured metric", "value_before": "Initial value", "value_after": "Final value", "percent_improvement": "Improvement if computable"}
          ],
          "visual_proofs": ["Kind of visual proof if mentioned"]
        }
      ],
      "revealed_method": {
        "percent_revealed": "20-30%%",
        "description": "What was revealed of the method",
        "main_elements": ["Method element (niche term)"]
      },
      "belief_layers": [
        {"layer_number": 1, "focus": "Layer focus", "supporting_data": "Supporting data if available", "psychological_impact": "Expected impact"}
      ]
    },
    "phase_4_cpl3": {
      "title": "CPL3 - The Revolutionary Path",
      "description": "CPL3 description",
      "method_name": "Method name built from niche key terms",
      "step_by_step": [
        {
          "step": 1,
          "name": "Specific step name",
          "description": "Detailed description",
          "execution_time": "Estimated execution time if inferable",
          "common_errors": ["Common error found in searches"],
          "advanced_tip": "Tip to improve results"
        }
      ],
      "strategic_faq": [
        {"question": "Real question from the objections", "answer": "Convincing data-based answer", "data_basis": "Data behind the answer"}
      ],
      "scarcity_justification": {
        "real_limitations": ["Limitation found in research"],
        "psychological_impact": "Expected impact of the scarcity"
      }
    },
    "phase_5_cpl4": {
      "title": "CPL4 - The Inevitable Decision",
      "description": "CPL4 description",
      "value_stack": {
        "bonus_1_speed": {"name": "Bonus name", "description": "Value delivered", "time_saved_data": "Concrete time saved", "avatar_impact": "Real impact on the avatar"},
        "bonus_2_ease": {"name": "Bonus name", "description": "Value delivered", "items": ["Friction removed (from objections)"]},
        "bonus_3_security": {"name": "Bonus name", "description": "Value delivered", "items": ["Concern addressed"]},
        "bonus_4_status": {"name": "Bonus name", "description": "Value delivered", "items": ["Aspiration met"]},
        "bonus_5_surprise": {"name": "Surprise bonus", "description": "Value delivered", "perceived_value": "High/Medium/Low plus rationale"}
      },
      "psychological_pricing": {
        "base_value": "Value based on market research",
        "competitor_comparison": [
          {"competitor": "Competitor if identifiable", "offer": "Offer", "price": "Price", "positioning_differential": "How to position better"}
        ],
        "pricing_justification": "Justification from real delivered value"
      },
      "aggressive_guarantees": [
        {"guarantee_type": "Guarantee type", "description": "Details", "supporting_data": "Data behind it", "coverage_period": "Coverage period", "redemption_process": "How to redeem"}
      ]
    }
  },
  "final_considerations": {
    "expected_impact": "Expected strategic impact of the sequence",
    "differentiators": ["Protocol differentiator"],
    "next_steps": ["Implementation step"]
  }
}

IMPORTANT:
- Use ONLY real data from the context or from your searches. When a value is unavailable, say so explicitly (e.g. "Not specified in the data").
- Focus on actionable insights and proven strategies.
- The output MUST be valid JSON with no markdown around it.`
