// Package budget estimates trip budgets from route distance, trip length and
// a traveler profile, and summarises recorded expenses against a budget.
package budget

import (
	"fmt"
	"math"
	"strings"

	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/utils"
)

const (
	Solo  = "solo"
	Group = "group"

	StyleBudget = "budget"
	StyleMid    = "mid"
	StyleLuxury = "luxury"

	// DefaultCostPerKm is suggested to the client when it has no figure of its own.
	DefaultCostPerKm = "15"
)

// Profiles holds the per person per day cost for each traveler type and style.
var Profiles = map[string]map[string]float64{
	Solo:  {StyleBudget: 2000, StyleMid: 5000, StyleLuxury: 15000},
	Group: {StyleBudget: 1600, StyleMid: 4000, StyleLuxury: 12000},
}

var (
	ErrNoRoute            = domain.PreconditionError{Msg: "Please set a start and destination first to get a route."}
	ErrInvalidDates       = domain.ValidationError{Field: "dates", Msg: "Please select a valid Start and End date."}
	ErrInvalidCostPerUnit = domain.ValidationError{Field: "cost_per_km", Msg: "Invalid cost per km."}
	ErrUnknownProfile     = domain.ValidationError{Field: "profile", Msg: "Unknown traveler type or travel style."}
	ErrInvalidGroupSize   = domain.ValidationError{Field: "group_size", Msg: "Group size must be at least 1."}
)

// Input is everything the estimator needs. DistanceKm is the one-way length
// of the last computed route; HasRoute is false when none exists yet.
type Input struct {
	HasRoute     bool
	DistanceKm   float64
	StartDate    string
	EndDate      string
	TravelerType string
	Style        string
	GroupSize    int
	CostPerKm    string
}

// Estimate is the computed budget and its parts.
type Estimate struct {
	TravelerType string  `json:"traveler_type"`
	Style        string  `json:"travel_style"`
	GroupSize    int     `json:"group_size"`
	NumDays      int     `json:"num_days"`
	DailyRate    float64 `json:"daily_rate"`
	DistanceKm   float64 `json:"distance_km"`
	CostPerKm    float64 `json:"cost_per_km"`
	TravelCost   float64 `json:"travel_cost"`
	LodgingCost  float64 `json:"lodging_cost"`
	Total        float64 `json:"total"`
	// Budget is Total rounded to whole units, the value written to the trip.
	Budget float64 `json:"budget"`
}

// Compute runs the estimator.
func Compute(in Input) (Estimate, error) {
	if !in.HasRoute {
		return Estimate{}, ErrNoRoute
	}

	days, err := NumDays(in.StartDate, in.EndDate)
	if err != nil {
		return Estimate{}, err
	}

	traveler := strings.ToLower(strings.TrimSpace(in.TravelerType))
	style := strings.ToLower(strings.TrimSpace(in.Style))
	rates, ok := Profiles[traveler]
	if !ok {
		return Estimate{}, ErrUnknownProfile
	}
	rate, ok := rates[style]
	if !ok {
		return Estimate{}, ErrUnknownProfile
	}

	groupSize := 1
	if traveler == Group {
		if in.GroupSize < 1 {
			return Estimate{}, ErrInvalidGroupSize
		}
		groupSize = in.GroupSize
	}

	costPerKm, err := utils.ParseAmount(in.CostPerKm)
	if err != nil || costPerKm < 0 {
		return Estimate{}, ErrInvalidCostPerUnit
	}

	travel := in.DistanceKm * costPerKm * 2
	lodging := rate * float64(groupSize) * float64(days)
	total := travel + lodging

	return Estimate{
		TravelerType: traveler,
		Style:        style,
		GroupSize:    groupSize,
		NumDays:      days,
		DailyRate:    rate,
		DistanceKm:   in.DistanceKm,
		CostPerKm:    costPerKm,
		TravelCost:   travel,
		LodgingCost:  lodging,
		Total:        total,
		Budget:       math.Round(total),
	}, nil
}

// NumDays returns the inclusive day count between two YYYY-MM-DD dates.
func NumDays(start, end string) (int, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return 0, ErrInvalidDates
	}
	s, err := utils.ParseDate(start)
	if err != nil {
		return 0, ErrInvalidDates
	}
	e, err := utils.ParseDate(end)
	if err != nil {
		return 0, ErrInvalidDates
	}
	if e.Before(s) {
		return 0, ErrInvalidDates
	}
	days := int(math.Ceil(e.Sub(s).Hours()/24)) + 1
	if days < 1 {
		days = 1
	}
	return days, nil
}

// Breakdown renders the estimate as the multi-line summary shown to the user.
func (e Estimate) Breakdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Smart Budget Calculated:\n")
	fmt.Fprintf(&b, "Travel Style: %s (%d person/s), %s\n", e.TravelerType, e.GroupSize, e.Style)
	b.WriteString("---------------------------------\n")
	fmt.Fprintf(&b, "Travel Cost (Round Trip): %s\n", utils.FormatRupee(e.TravelCost))
	fmt.Fprintf(&b, "(%.0f km * 2 * ₹%s/km)\n", e.DistanceKm, trimFloat(e.CostPerKm))
	fmt.Fprintf(&b, "Lodging/Food Cost: %s\n", utils.FormatRupee(e.LodgingCost))
	fmt.Fprintf(&b, "(%d days * ₹%.0f/day * %d person/s)\n", e.NumDays, e.DailyRate, e.GroupSize)
	b.WriteString("---------------------------------\n")
	fmt.Fprintf(&b, "Total Estimated Budget: %s", utils.FormatRupee(e.Total))
	return b.String()
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Summarize totals expenses against a trip budget.
func Summarize(tripBudget float64, expenses []models.Expense) models.ExpenseSummary {
	var spent float64
	for _, e := range expenses {
		spent += e.Amount
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return models.ExpenseSummary{
		TripBudget:      tripBudget,
		TotalSpent:      spent,
		RemainingBudget: tripBudget - spent,
		Expenses:        expenses,
	}
}
