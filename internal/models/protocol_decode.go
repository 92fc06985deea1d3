package models

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// decodeObject returns the JSON object in data, nil for a JSON null, and an error for
// anything else
func decodeObject(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	switch doc := v.(type) {
	case map[string]any:
		return doc, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("document is a %T, not an object", v)
	}
}

func protocolFromDocument(doc map[string]any) *Protocol {
	p := &Protocol{
		Title:               text(doc[KeyTitle]),
		Description:         text(doc[KeyDescription]),
		Phases:              phasesFrom(doc[KeyPhases]),
		FinalConsiderations: finalFrom(doc[KeyFinalConsiderations]),
		doc:                 doc,
		keys:                make(map[string]bool, len(doc)),
	}
	for k := range doc {
		p.keys[k] = true
	}
	return p
}

func phasesFrom(v any) Phases {
	m := object(v)
	phases := Phases{keys: make(map[string]bool, len(m))}
	for k := range m {
		phases.keys[k] = true
	}

	if o := object(m[PhaseArchitecture]); o != nil {
		arch := &ArchitecturePhase{
			Title:               text(o["title"]),
			Description:         text(o["description"]),
			Strategy:            text(o["strategy"]),
			FinalRecommendation: text(o["final_recommendation"]),
		}
		for _, item := range list(o["event_versions"]) {
			arch.EventVersions = append(arch.EventVersions, eventVersionFrom(item))
		}
		phases.Architecture = arch
	}

	if o := object(m[PhaseCPL1]); o != nil {
		cpl1 := &OpportunityPhase{Title: text(o["title"]), Description: text(o["description"])}
		for _, item := range list(o["teasers"]) {
			t := Teaser{Text: text(item)}
			if e := object(item); e != nil {
				t = Teaser{Text: text(e["text"]), Justification: text(e["justification"])}
			}
			cpl1.Teasers = append(cpl1.Teasers, t)
		}
		phases.CPL1 = cpl1
	}

	if o := object(m[PhaseCPL2]); o != nil {
		cpl2 := &TransformPhase{Title: text(o["title"]), Description: text(o["description"])}
		for _, item := range list(o["detailed_success_cases"]) {
			c := SuccessCase{Case: text(item)}
			if e := object(item); e != nil {
				c.Case = text(e["case"])
			}
			cpl2.DetailedCases = append(cpl2.DetailedCases, c)
		}
		phases.CPL2 = cpl2
	}

	if o := object(m[PhaseCPL3]); o != nil {
		cpl3 := &PathPhase{
			Title:       text(o["title"]),
			Description: text(o["description"]),
			MethodName:  text(o["method_name"]),
		}
		for _, item := range list(o["step_by_step"]) {
			cpl3.Steps = append(cpl3.Steps, methodStepFrom(item))
		}
		phases.CPL3 = cpl3
	}

	if o := object(m[PhaseCPL4]); o != nil {
		cpl4 := &DecisionPhase{Title: text(o["title"]), Description: text(o["description"])}
		if stack := object(o["value_stack"]); stack != nil {
			cpl4.ValueStack = make(map[string]Bonus, len(stack))
			for key, item := range stack {
				b := Bonus{Description: text(item)}
				if e := object(item); e != nil {
					b = Bonus{Name: text(e["name"]), Description: text(e["description"]), Perceived: text(e["perceived_value"])}
				}
				cpl4.ValueStack[key] = b
			}
		}
		for _, item := range list(o["aggressive_guarantees"]) {
			g := Guarantee{Description: text(item)}
			if e := object(item); e != nil {
				g = Guarantee{Type: text(e["guarantee_type"]), Description: text(e["description"])}
			}
			cpl4.Guarantees = append(cpl4.Guarantees, g)
		}
		phases.CPL4 = cpl4
	}

	return phases
}

func eventVersionFrom(item any) EventVersion {
	e := object(item)
	if e == nil {
		return EventVersion{EventName: text(item)}
	}
	return EventVersion{
		Type:                   text(e["type"]),
		EventName:              text(e["event_name"]),
		PsychologicalRationale: text(e["psychological_rationale"]),
		CentralPromise:         text(e["central_promise"]),
	}
}

func methodStepFrom(item any) MethodStep {
	e := object(item)
	if e == nil {
		return MethodStep{Name: text(item)}
	}
	step, _ := cast.ToIntE(e["step"])
	return MethodStep{
		Step:          step,
		Name:          text(e["name"]),
		Description:   text(e["description"]),
		ExecutionTime: text(e["execution_time"]),
	}
}

func finalFrom(v any) FinalConsiderations {
	o := object(v)
	if o == nil {
		return FinalConsiderations{ExpectedImpact: text(v)}
	}
	return FinalConsiderations{
		ExpectedImpact:  text(o["expected_impact"]),
		Differentiators: texts(o["differentiators"]),
		NextSteps:       texts(o["next_steps"]),
	}
}

// text renders scalars as strings; objects, lists and null yield ""
func text(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// texts renders a list of scalars; a lone scalar becomes a one-element list
func texts(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := text(v); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := text(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}
