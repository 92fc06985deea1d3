package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Top-level protocol keys
const (
	KeyTitle               = "title"
	KeyDescription         = "description"
	KeyPhases              = "phases"
	KeyFinalConsiderations = "final_considerations"
)

// Phase keys
const (
	PhaseArchitecture = "phase_1_architecture"
	PhaseCPL1         = "phase_2_cpl1"
	PhaseCPL2         = "phase_3_cpl2"
	PhaseCPL3         = "phase_4_cpl3"
	PhaseCPL4         = "phase_5_cpl4"
)

// RequiredKeys lists the top-level keys every protocol document must carry
var RequiredKeys = []string{KeyTitle, KeyDescription, KeyPhases, KeyFinalConsiderations}

// RequiredPhases lists the phases a complete protocol carries, in order
var RequiredPhases = []string{PhaseArchitecture, PhaseCPL1, PhaseCPL2, PhaseCPL3, PhaseCPL4}

// GenerationStatus tells how a protocol was produced
type GenerationStatus string

const (
	GenerationComplete      GenerationStatus = "complete"
	GenerationParseFallback GenerationStatus = "parse_fallback"
	GenerationError         GenerationStatus = "error"
)

// Protocol is the CPL protocol produced by the AI backend. The typed fields are a lenient
// view of the source document; the document itself is what gets persisted
type Protocol struct {
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Phases              Phases              `json:"phases"`
	FinalConsiderations FinalConsiderations `json:"final_considerations"`

	Status GenerationStatus `json:"-"`

	// doc is the parsed source document, nil for protocols built in code
	doc map[string]any
	// keys holds the top-level keys present in the parsed document
	keys map[string]bool
}

// Phases holds the five named phases. A nil phase was absent or not an object
type Phases struct {
	Architecture *ArchitecturePhase `json:"phase_1_architecture,omitempty"`
	CPL1         *OpportunityPhase  `json:"phase_2_cpl1,omitempty"`
	CPL2         *TransformPhase    `json:"phase_3_cpl2,omitempty"`
	CPL3         *PathPhase         `json:"phase_4_cpl3,omitempty"`
	CPL4         *DecisionPhase     `json:"phase_5_cpl4,omitempty"`

	// keys holds the phase keys present in the parsed document
	keys map[string]bool
}

// Present returns the phase keys the protocol carries, in canonical order
func (p Phases) Present() []string {
	present := make([]string, 0, len(RequiredPhases))
	for _, key := range RequiredPhases {
		if p.Has(key) {
			present = append(present, key)
		}
	}
	return present
}

// Has reports whether the phase key was present, whatever its content
func (p Phases) Has(key string) bool {
	if p.keys != nil {
		return p.keys[key]
	}
	switch key {
	case PhaseArchitecture:
		return p.Architecture != nil
	case PhaseCPL1:
		return p.CPL1 != nil
	case PhaseCPL2:
		return p.CPL2 != nil
	case PhaseCPL3:
		return p.CPL3 != nil
	case PhaseCPL4:
		return p.CPL4 != nil
	}
	return false
}

// Count returns the number of phases present
func (p Phases) Count() int {
	return len(p.Present())
}

// ArchitecturePhase - phase 1, the magnetic event architecture
type ArchitecturePhase struct {
	Title               string         `json:"title,omitempty"`
	Description         string         `json:"description,omitempty"`
	Strategy            string         `json:"strategy,omitempty"`
	EventVersions       []EventVersion `json:"event_versions,omitempty"`
	FinalRecommendation string         `json:"final_recommendation,omitempty"`
}

// EventVersion is one candidate naming/positioning of the event
type EventVersion struct {
	Type                   string `json:"type,omitempty"`
	EventName              string `json:"event_name,omitempty"`
	PsychologicalRationale string `json:"psychological_rationale,omitempty"`
	CentralPromise         string `json:"central_promise,omitempty"`
}

// OpportunityPhase - phase 2, CPL1
type OpportunityPhase struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Teasers     []Teaser `json:"teasers,omitempty"`
}

// Teaser is a short hook built from collected phrases
type Teaser struct {
	Text          string `json:"text,omitempty"`
	Justification string `json:"justification,omitempty"`
}

// TransformPhase - phase 3, CPL2
type TransformPhase struct {
	Title         string        `json:"title,omitempty"`
	Description   string        `json:"description,omitempty"`
	DetailedCases []SuccessCase `json:"detailed_success_cases,omitempty"`
}

// SuccessCase is a detailed case study
type SuccessCase struct {
	Case string `json:"case,omitempty"`
}

// PathPhase - phase 4, CPL3
type PathPhase struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MethodName  string       `json:"method_name,omitempty"`
	Steps       []MethodStep `json:"step_by_step,omitempty"`
}

// MethodStep is one step of the revealed method
type MethodStep struct {
	Step          int    `json:"step,omitempty"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	ExecutionTime string `json:"execution_time,omitempty"`
}

// DecisionPhase - phase 5, CPL4
type DecisionPhase struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	ValueStack  map[string]Bonus `json:"value_stack,omitempty"`
	Guarantees  []Guarantee      `json:"aggressive_guarantees,omitempty"`
}

// Bonus is one entry of the value stack
type Bonus struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Perceived   string `json:"perceived_value,omitempty"`
}

// Guarantee is one guarantee offered in CPL4
type Guarantee struct {
	Type        string `json:"guarantee_type,omitempty"`
	Description string `json:"description,omitempty"`
}

// FinalConsiderations closes the protocol
type FinalConsiderations struct {
	ExpectedImpact  string   `json:"expected_impact"`
	Differentiators []string `json:"differentiators"`
	NextSteps       []string `json:"next_steps"`
}

// ParseProtocol decodes a protocol document. Any JSON object parses; only the
// typed view is best effort. Anything other than a JSON object is a parse error
func ParseProtocol(data []byte) (*Protocol, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse protocol: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to parse protocol: document is not an object")
	}
	p := protocolFromDocument(doc)
	p.Status = GenerationComplete
	return p, nil
}

// NewProtocol builds a protocol in code; all top-level keys count as present
func NewProtocol(title, description string, final FinalConsiderations, status GenerationStatus) *Protocol {
	p := &Protocol{
		Title:               title,
		Description:         description,
		FinalConsiderations: final,
		Status:              status,
		keys:                make(map[string]bool, len(RequiredKeys)),
	}
	for _, k := range RequiredKeys {
		p.keys[k] = true
	}
	return p
}

// HasKey reports whether the top-level key was present in the source document
func (p *Protocol) HasKey(key string) bool {
	if p.keys == nil {
		// Built as a literal: every field is serialized, so every key is present
		return true
	}
	return p.keys[key]
}

// Document returns the parsed source document, or nil for protocols built in code
func (p *Protocol) Document() map[string]any {
	return p.doc
}

// MarshalJSON writes the source document unchanged when there is one
func (p Protocol) MarshalJSON() ([]byte, error) {
	if p.doc != nil {
		return json.Marshal(p.doc)
	}
	type plain Protocol
	return json.Marshal(plain(p))
}

// UnmarshalJSON keeps key tracking when a protocol is embedded in another document
func (p *Protocol) UnmarshalJSON(data []byte) error {
	doc, err := decodeObject(data)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	*p = *protocolFromDocument(doc)
	return nil
}

// Complexity tiers
const (
	ComplexityHigh   = "Alto"
	ComplexityMedium = "Médio"
	ComplexityLow    = "Baixo"
)

// ExecutiveSummary is a read-only projection of a protocol
type ExecutiveSummary struct {
	ProtocolTitle           string `json:"protocol_title"`
	TotalPhases             int    `json:"total_phases"`
	MainStrategy            string `json:"main_strategy"`
	RecommendedEvent        string `json:"recommended_event,omitempty"`
	TotalBonuses            int    `json:"total_bonuses"`
	TotalGuarantees         int    `json:"total_guarantees"`
	ComplexityLevel         string `json:"complexity_level,omitempty"`
	EstimatedImplementation string `json:"estimated_implementation_time,omitempty"`
	Error                   string `json:"error,omitempty"`
}

// FlowValidation is the validation block of a flow result
type FlowValidation struct {
	IsValid   bool      `json:"is_valid"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Error     string    `json:"error,omitempty"`
}

// ContextUsage tells which inputs were non-empty
type ContextUsage struct {
	Synthesis        bool `json:"synthesis"`
	Persona          bool `json:"persona"`
	StrategicContext bool `json:"strategic_context"`
	WebData          bool `json:"web_data"`
}

// FlowMetadata describes the run that produced a flow result
type FlowMetadata struct {
	SystemVersion        string        `json:"system_version"`
	Module               string        `json:"module"`
	TotalPhasesGenerated int           `json:"total_phases_generated"`
	ContextUsed          *ContextUsage `json:"context_used,omitempty"`
	GenerationStatus     string        `json:"generation_status,omitempty"`
	Status               string        `json:"status,omitempty"`
}

// FlowResult is the outcome of the full CPL flow
type FlowResult struct {
	Protocol   *Protocol        `json:"protocol"`
	Validation FlowValidation   `json:"validation"`
	Summary    ExecutiveSummary `json:"summary"`
	Metadata   FlowMetadata     `json:"metadata"`
}

// GenerationContext is the input document sent to the model
type GenerationContext struct {
	Synthesis        map[string]any `json:"synthesis"`
	Persona          map[string]any `json:"persona"`
	StrategicContext map[string]any `json:"strategic_context"`
	WebResearch      map[string]any `json:"web_research"`
	KeyTerms         []any          `json:"key_terms"`
	Objections       []any          `json:"objections"`
	Trends           []any          `json:"trends"`
	SuccessCases     []any          `json:"success_cases"`
}
