package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/budget"
	"smarttravel/internal/utils"
)

type estimateRequest struct {
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	TravelerType string          `json:"traveler_type"`
	TravelStyle  string          `json:"travel_style"`
	GroupSize    int             `json:"group_size"`
	CostPerKm    json.RawMessage `json:"cost_per_km"`
	TripID       json.RawMessage `json:"trip_id"`
}

// costString keeps the raw cost text so the estimator decides what parses.
func costString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return budget.DefaultCostPerKm
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// POST /api/budget/estimate uses the session's last route as the distance.
func (a *App) EstimateBudget(c *gin.Context) {
	var req estimateRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	route, hasRoute := a.session(c).LastRoute()
	est, err := budget.Compute(budget.Input{
		HasRoute:     hasRoute,
		DistanceKm:   route.DistanceKm(),
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		TravelerType: req.TravelerType,
		Style:        req.TravelStyle,
		GroupSize:    req.GroupSize,
		CostPerKm:    costString(req.CostPerKm),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	fields := gin.H{
		"estimate":  est,
		"total":     utils.FormatRupee(est.Total),
		"breakdown": est.Breakdown(),
	}
	if len(req.TripID) > 0 && string(req.TripID) != "null" {
		tripID, err := decodeTripID(req.TripID)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		if err := a.tripService(c).SetBudget(int64(currentUserID(c)), tripID, est.Budget); err != nil {
			RespondDomainError(c, err)
			return
		}
		fields["message"] = "Trip budget updated to " + utils.FormatRupee(est.Budget)
	}
	RespondSuccess(c, fields)
}
