// Package store archives finished simulation runs so they can be listed,
// fetched, charted and replayed later.
package store

import (
	"context"
	"errors"
	"time"

	"solar-battery-sim/internal/analysis"
	"solar-battery-sim/internal/config"
	"solar-battery-sim/internal/simulation"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("run not found")

// Run is a finished simulation with everything needed to present it again.
type Run struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	CreatedAt time.Time              `json:"created_at"`
	Config    config.Config          `json:"config"`
	Summary   analysis.Summary       `json:"summary"`
	Ledger    []simulation.LedgerRow `json:"ledger,omitempty"`
}

// RunInfo is the listing form of a Run.
type RunInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Strategy  string    `json:"strategy"`
	Intervals int       `json:"intervals"`
	NetCost   float64   `json:"net_cost"`
}

func (r *Run) Info() RunInfo {
	return RunInfo{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		Strategy:  r.Summary.Strategy,
		Intervals: r.Summary.Totals.Intervals,
		NetCost:   r.Summary.Totals.NetCost,
	}
}

type Store interface {
	// Save assigns ID and CreatedAt when they are unset.
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	// List returns every run, newest first.
	List(ctx context.Context) ([]RunInfo, error)
	Close() error
}

func prepare(run *Run) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}
