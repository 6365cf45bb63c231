package handlers

import (
	"net/http"

	"solar-battery-sim/internal/api/models"
	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/strategy"

	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	tou := strategy.DefaultTOUOptions()
	strategies := []models.StrategyInfo{
		{
			Name: string(model.StrategyTOUVPP),
			Description: "Time-of-use dispatch with a price-triggered VPP override. " +
				"Discharges at full power when the spot price exceeds price_threshold, " +
				"otherwise charges offpeak, shaves peak deficits and follows net load in shoulder.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "price_threshold",
					Type:        "float",
					Description: "Spot price above which the battery discharges at full power (dispatch.price_threshold)",
				},
				{
					Name:        "support_load_in_shoulder",
					Type:        "bool",
					Description: "Discharge to cover a deficit during shoulder; when false shoulder only charges from surplus",
					Default:     tou.SupportLoadInShoulder,
				},
				{
					Name:        "charge_surplus_in_peak",
					Type:        "bool",
					Description: "Charge from a solar surplus during peak instead of idling",
					Default:     tou.ChargeSurplusInPeak,
				},
			},
		},
		{
			Name:        string(model.StrategySelfConsumption),
			Description: "Charges with every kW of solar surplus and discharges to cover every kW of deficit.",
			Parameters:  []models.ParameterInfo{},
		},
		{
			Name:        string(model.StrategySchedule),
			Description: "Time-based schedule strategy. Charges and discharges at specific times each day.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "charge_start",
					Type:        "string",
					Description: "Start time for charging (HH:MM format, e.g., '10:00')",
					Default:     "10:00",
				},
				{
					Name:        "charge_end",
					Type:        "string",
					Description: "End time for charging (HH:MM format, defaults to discharge_start)",
				},
				{
					Name:        "discharge_start",
					Type:        "string",
					Description: "Start time for discharging (HH:MM format, e.g., '17:00')",
					Default:     "17:00",
				},
				{
					Name:        "discharge_end",
					Type:        "string",
					Description: "End time for discharging (HH:MM format)",
					Default:     "21:00",
				},
				{
					Name:        "charge_power_kw",
					Type:        "float",
					Description: "Charge power in kW (defaults to the battery's max_charge_kw)",
				},
				{
					Name:        "discharge_power_kw",
					Type:        "float",
					Description: "Discharge power in kW (defaults to the battery's max_discharge_kw)",
				},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
