package models

import (
	"solar-battery-sim/internal/config"
	"solar-battery-sim/internal/data"
)

// SimulationRequest is the body of POST /api/v1/simulations. Exactly one
// of Rows and Dataset supplies the input series.
type SimulationRequest struct {
	Name    string             `json:"name,omitempty"`
	Config  config.Config      `json:"config"`
	Rows    []data.RowRecord   `json:"rows,omitempty"`
	Dataset *data.MergeRequest `json:"dataset,omitempty"`
	Options SimulationOptions  `json:"options,omitempty"`
}

// SimulationOptions contains optional run parameters
type SimulationOptions struct {
	LimitIntervals int  `json:"limit_intervals,omitempty"` // 0 = all
	IncludeLedger  bool `json:"include_ledger,omitempty"`  // default: false
}

// CompareRequest runs every variation over the same input. Each variation
// config is merged over BaseConfig.
type CompareRequest struct {
	Rows       []data.RowRecord    `json:"rows,omitempty"`
	Dataset    *data.MergeRequest  `json:"dataset,omitempty"`
	BaseConfig config.Config       `json:"base_config"`
	Variations []SimulationVariant `json:"variations" binding:"required,min=1"`
	Options    SimulationOptions   `json:"options,omitempty"`
}

// SimulationVariant is one named variation in a comparison
type SimulationVariant struct {
	Name   string        `json:"name" binding:"required"`
	Config config.Config `json:"config"`
}
