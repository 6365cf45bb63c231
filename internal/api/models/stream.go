package models

import (
	"encoding/json"

	"solar-battery-sim/internal/simulation"
)

// Envelope wraps every websocket message with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Server -> client message types of the ledger stream.
const (
	TypeRunInfo     = "run:info"
	TypeLedgerBatch = "ledger:batch"
	TypeRunSummary  = "run:summary"
	TypeError       = "error"
)

// LedgerBatchPayload carries one simulated day of a run.
type LedgerBatchPayload struct {
	Day    string                 `json:"day"` // YYYY-MM-DD
	Offset int                    `json:"offset"`
	Rows   []simulation.LedgerRow `json:"rows"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
