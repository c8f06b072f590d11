package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/domain"
	"smarttravel/internal/geo"
)

const suggestionLimit = 5

// GET /api/locations?q=
func (a *App) Locations(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		respondError(c, http.StatusBadRequest, "Query is required", gin.H{"locations": []geo.Location{}})
		return
	}
	locations, err := a.Geocoder.Search(c.Request.Context(), q, suggestionLimit)
	if err != nil {
		RespondDomainError(c, domain.UpstreamError{Service: "nominatim", Msg: "Location search failed", Err: err})
		return
	}
	RespondSuccess(c, gin.H{"locations": locations})
}
