package models

import (
	"solar-battery-sim/internal/analysis"
	"solar-battery-sim/internal/simulation"
	"solar-battery-sim/internal/store"
)

// SimulationResponse represents the response from a simulation run
type SimulationResponse struct {
	ID      string                 `json:"id,omitempty"`
	Status  string                 `json:"status"`
	Summary analysis.Summary       `json:"summary"`
	Ledger  []simulation.LedgerRow `json:"ledger,omitempty"`
}

// RunListResponse lists archived runs, newest first
type RunListResponse struct {
	Runs []store.RunInfo `json:"runs"`
}

// LedgerResponse is one page of a stored run's ledger
type LedgerResponse struct {
	ID     string                 `json:"id"`
	Total  int                    `json:"total"`
	Offset int                    `json:"offset"`
	Ledger []simulation.LedgerRow `json:"ledger"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []analysis.RankedScenario `json:"comparison"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	CapacityKWh         float64 `json:"capacity_kwh"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
	MaxChargeKW         float64 `json:"max_charge_kw"`
	MaxDischargeKW      float64 `json:"max_discharge_kw"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "bool", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeSimulationError = "SIMULATION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeMissingParam    = "MISSING_PARAM"
)
