package cpl

import (
	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/pkg/logger"
)

// Validate reports whether the protocol carries every top-level key and every phase key,
// whatever their content. Each missing key is logged
func Validate(p *models.Protocol, log *logger.Logger) bool {
	if p == nil {
		log.Warn().Msg("CPL protocol is missing")
		return false
	}

	valid := true
	for _, key := range models.RequiredKeys {
		if !p.HasKey(key) {
			log.Warn().Str("key", key).Msg("CPL protocol is missing a required key")
			valid = false
		}
	}

	for _, phase := range models.RequiredPhases {
		if !p.Phases.Has(phase) {
			log.Warn().Str("phase", phase).Msg("CPL protocol is missing a phase")
			valid = false
		}
	}

	if valid {
		log.Info().Msg("CPL protocol structure is valid")
	}
	return valid
}
