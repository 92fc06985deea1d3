package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Step categories and names written by the generators
const (
	CategoryMainModules = "modulos_principais"

	StepCPLComplete  = "cpl_completo"
	StepCPLError     = "cpl_erro"
	StepCPLFlow      = "fluxo_cpl_completo"
	StepViralSummary = "analise_viral"
)

// RawJSON stores an already-encoded JSON document in a json column
type RawJSON []byte

func (j RawJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *RawJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = RawJSON(v)
	default:
		return fmt.Errorf("unsupported payload type %T", value)
	}
	return nil
}

// MarshalJSON emits the stored document as-is
func (j RawJSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// Step is one persisted intermediate result of a session
type Step struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"index:idx_step_lookup;not null" json:"session_id"`
	Category  string    `gorm:"index:idx_step_lookup;not null" json:"category"`
	Name      string    `gorm:"index:idx_step_lookup;not null" json:"name"`
	Payload   RawJSON   `gorm:"type:json" json:"payload"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewStep encodes payload into a step record
func NewStep(sessionID, category, name string, payload any) (*Step, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode step %s/%s: %w", category, name, err)
	}
	return &Step{
		SessionID: sessionID,
		Category:  category,
		Name:      name,
		Payload:   data,
	}, nil
}
