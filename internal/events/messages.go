package events

import (
	"encoding/json"
	"time"
)

// Event names carried on mutation messages.
const (
	EventGastoCreated = "gasto.created"
	EventGastoUpdated = "gasto.updated"
	EventGastoDeleted = "gasto.deleted"
)

// GastoEventMessage is the lightweight notification published after a
// gasto mutation. Consumers fetch the full record from the API if they
// need more than the amount.
type GastoEventMessage struct {
	Event     string    `json:"event"`
	GastoID   string    `json:"gasto_id"`
	TenantID  string    `json:"tenant_id"`
	Valor     float64   `json:"valor"`
	Timestamp time.Time `json:"timestamp"`
}

func NewGastoEventMessage(event, gastoID, tenantID string, valor float64) *GastoEventMessage {
	return &GastoEventMessage{
		Event:     event,
		GastoID:   gastoID,
		TenantID:  tenantID,
		Valor:     valor,
		Timestamp: time.Now().UTC(),
	}
}

func (m *GastoEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
