package cpl

import (
	"sort"

	"github.com/spf13/cast"

	"github.com/cpl-agent/internal/models"
)

// Sampling limits of the generation context
const (
	maxWebResearch  = 5
	maxKeyTerms     = 10
	maxObjections   = 5
	maxTrends       = 5
	maxSuccessCases = 5
)

// Strategic context lookups accept the English key first, then the legacy one
var (
	keyTermsKeys     = []string{"key_terms", "termos_chave"}
	objectionsKeys   = []string{"objections", "objecoes"}
	trendsKeys       = []string{"trends", "tendencias"}
	successCasesKeys = []string{"success_cases", "casos_sucesso"}
)

// BuildContext assembles the generation context from the four inputs. web_research holds
// the first entries of webData in sorted key order
func BuildContext(synthesis, persona, strategicContext, webData map[string]any) models.GenerationContext {
	return models.GenerationContext{
		Synthesis:        orEmpty(synthesis),
		Persona:          orEmpty(persona),
		StrategicContext: orEmpty(strategicContext),
		WebResearch:      sampleMap(webData, maxWebResearch),
		KeyTerms:         takeList(strategicContext, keyTermsKeys, maxKeyTerms),
		Objections:       takeList(strategicContext, objectionsKeys, maxObjections),
		Trends:           takeList(strategicContext, trendsKeys, maxTrends),
		SuccessCases:     takeList(strategicContext, successCasesKeys, maxSuccessCases),
	}
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func sampleMap(m map[string]any, n int) map[string]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, min(n, len(keys)))
	for _, k := range keys[:min(n, len(keys))] {
		out[k] = m[k]
	}
	return out
}

func takeList(m map[string]any, keys []string, n int) []any {
	for _, key := range keys {
		raw, ok := m[key]
		if !ok {
			continue
		}
		list := toList(raw)
		return list[:min(n, len(list))]
	}
	return []any{}
}

func toList(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}
	list, err := cast.ToSliceE(raw)
	if err != nil {
		return []any{}
	}
	return list
}
