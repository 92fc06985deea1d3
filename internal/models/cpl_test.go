package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocol_TracksKeys(t *testing.T) {
	data := []byte(`{
		"title": "Protocol",
		"phases": {
			"phase_1_architecture": {"strategy": "scarcity"},
			"phase_5_cpl4": {"value_stack": {"bonus_1": {"name": "Kit"}}}
		}
	}`)

	p, err := ParseProtocol(data)
	require.NoError(t, err)

	assert.Equal(t, GenerationComplete, p.Status)
	assert.True(t, p.HasKey(KeyTitle))
	assert.True(t, p.HasKey(KeyPhases))
	assert.False(t, p.HasKey(KeyDescription))
	assert.False(t, p.HasKey(KeyFinalConsiderations))
	assert.Equal(t, []string{PhaseArchitecture, PhaseCPL4}, p.Phases.Present())
	assert.Equal(t, "scarcity", p.Phases.Architecture.Strategy)
	assert.Contains(t, p.Phases.CPL4.ValueStack, "bonus_1")
}

func TestParseProtocol_RejectsNonObjects(t *testing.T) {
	for _, input := range []string{`not json`, `[1,2]`, `null`, `"text"`} {
		_, err := ParseProtocol([]byte(input))
		assert.Error(t, err, input)
	}
}

func TestNewProtocol_AllKeysPresent(t *testing.T) {
	p := NewProtocol("t", "d", FinalConsiderations{}, GenerationParseFallback)
	for _, k := range RequiredKeys {
		assert.True(t, p.HasKey(k), k)
	}
	assert.Equal(t, 0, p.Phases.Count())
}

func TestProtocol_EmbeddedDecodeKeepsKeys(t *testing.T) {
	var result FlowResult
	require.NoError(t, json.Unmarshal([]byte(`{"protocol":{"title":"x"}}`), &result))
	require.NotNil(t, result.Protocol)
	assert.True(t, result.Protocol.HasKey(KeyTitle))
	assert.False(t, result.Protocol.HasKey(KeyPhases))
}

func TestParseProtocol_ToleratesTypeVariance(t *testing.T) {
	data := []byte(`{
		"title": "Protocol",
		"description": 42,
		"phases": {
			"phase_1_architecture": {"event_versions": ["The Week"]},
			"phase_2_cpl1": {"teasers": ["first", "second"]},
			"phase_3_cpl2": {"detailed_success_cases": "none yet"},
			"phase_4_cpl3": {"step_by_step": [{"step": "1", "name": "Plan"}, "Ship"]},
			"phase_5_cpl4": {"value_stack": {"bonus_1": {"perceived_value": 497}, "bonus_2": "Calls"}}
		},
		"final_considerations": "Strong launch"
	}`)

	p, err := ParseProtocol(data)
	require.NoError(t, err)

	assert.Equal(t, GenerationComplete, p.Status)
	assert.Equal(t, "42", p.Description)
	assert.Equal(t, 5, p.Phases.Count())
	assert.Equal(t, "The Week", p.Phases.Architecture.EventVersions[0].EventName)
	assert.Equal(t, []Teaser{{Text: "first"}, {Text: "second"}}, p.Phases.CPL1.Teasers)
	assert.Empty(t, p.Phases.CPL2.DetailedCases)
	assert.Equal(t, []MethodStep{{Step: 1, Name: "Plan"}, {Name: "Ship"}}, p.Phases.CPL3.Steps)
	assert.Equal(t, "497", p.Phases.CPL4.ValueStack["bonus_1"].Perceived)
	assert.Equal(t, "Calls", p.Phases.CPL4.ValueStack["bonus_2"].Description)
	assert.Equal(t, "Strong launch", p.FinalConsiderations.ExpectedImpact)
}

func TestParseProtocol_NullPhaseCountsAsPresent(t *testing.T) {
	p, err := ParseProtocol([]byte(`{"phases": {"phase_1_architecture": null, "phase_2_cpl1": "text"}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{PhaseArchitecture, PhaseCPL1}, p.Phases.Present())
	assert.True(t, p.Phases.Has(PhaseArchitecture))
	assert.Nil(t, p.Phases.Architecture)
	assert.False(t, p.Phases.Has(PhaseCPL4))
}

func TestProtocol_MarshalKeepsSourceDocument(t *testing.T) {
	data := `{"title": "x", "extra_notes": ["kept"], "phases": {"phase_4_cpl3": {"step_by_step": [{"step": "1", "tip": "y"}]}}}`
	p, err := ParseProtocol([]byte(data))
	require.NoError(t, err)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, data, string(out))
	assert.Equal(t, []any{"kept"}, p.Document()["extra_notes"])
}
