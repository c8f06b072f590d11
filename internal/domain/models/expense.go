package models

import "time"

type Expense struct {
	ID          int64     `json:"id"`
	TripID      int64     `json:"trip_id"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExpenseSummary is the budget tracker view of one trip.
type ExpenseSummary struct {
	TripBudget      float64   `json:"trip_budget"`
	TotalSpent      float64   `json:"total_spent"`
	RemainingBudget float64   `json:"remaining_budget"`
	Expenses        []Expense `json:"expenses"`
}
