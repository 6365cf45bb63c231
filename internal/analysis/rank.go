package analysis

import (
	"sort"

	"solar-battery-sim/internal/simulation"
)

// Scenario is one named run of a comparison.
type Scenario struct {
	Name   string
	Result *simulation.Result
}

type RankedScenario struct {
	Rank    int     `json:"rank"`
	Name    string  `json:"name"`
	Summary Summary `json:"summary"`
	// SavingsVsWorst is the net cost difference to the most expensive
	// scenario.
	SavingsVsWorst float64 `json:"savings_vs_worst"`
}

// RankScenarios summarises each scenario and sorts ascending by net cost,
// cheapest first. Ties keep input order.
func RankScenarios(scenarios []Scenario) []RankedScenario {
	out := make([]RankedScenario, 0, len(scenarios))
	for _, sc := range scenarios {
		out = append(out, RankedScenario{Name: sc.Name, Summary: Summarize(sc.Result)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Summary.Totals.NetCost < out[j].Summary.Totals.NetCost
	})
	if len(out) == 0 {
		return out
	}
	worst := out[len(out)-1].Summary.Totals.NetCost
	for i := range out {
		out[i].Rank = i + 1
		out[i].SavingsVsWorst = worst - out[i].Summary.Totals.NetCost
	}
	return out
}
