package handlers

import (
	"net/http"

	"solar-battery-sim/internal/api/models"
	"solar-battery-sim/internal/data"

	"github.com/gin-gonic/gin"
)

// DatasetHandler browses the dataset directory.
type DatasetHandler struct {
	catalog *data.Catalog
}

// NewDatasetHandler creates a dataset handler; catalog may be nil.
func NewDatasetHandler(catalog *data.Catalog) *DatasetHandler {
	return &DatasetHandler{catalog: catalog}
}

// ListLocations handles GET /api/v1/datasets/locations
func (h *DatasetHandler) ListLocations(c *gin.Context) {
	if h.catalog == nil {
		respondErr(c, errNoDatasets)
		return
	}
	locations, err := h.catalog.Locations()
	if err != nil {
		respondErr(c, err)
		return
	}
	profiles, err := h.catalog.LoadProfiles()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"locations":     nonNil(locations),
		"load_profiles": nonNil(profiles),
		"count":         len(locations),
	})
}

// ListPoints handles GET /api/v1/datasets/points?location=
func (h *DatasetHandler) ListPoints(c *gin.Context) {
	location, ok := requireQuery(c, "location")
	if !ok {
		return
	}
	if h.catalog == nil {
		respondErr(c, errNoDatasets)
		return
	}
	points, err := h.catalog.Points(location)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": location, "points": nonNil(points)})
}

// ListYears handles GET /api/v1/datasets/years?location=
func (h *DatasetHandler) ListYears(c *gin.Context) {
	location, ok := requireQuery(c, "location")
	if !ok {
		return
	}
	if h.catalog == nil {
		respondErr(c, errNoDatasets)
		return
	}
	years, err := h.catalog.Years(location)
	if err != nil {
		respondErr(c, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"location": location, "years": years})
}

func requireQuery(c *gin.Context, key string) (string, bool) {
	v := c.Query(key)
	if v == "" {
		respondError(c, http.StatusBadRequest, models.CodeMissingParam, key+" query parameter is required", nil)
		return "", false
	}
	return v, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
