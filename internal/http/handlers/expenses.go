package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/domain"
	"smarttravel/internal/utils"
)

type addExpenseRequest struct {
	TripID      json.RawMessage `json:"trip_id"`
	Category    string          `json:"category"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
}

// POST /add-expense
func (a *App) AddExpense(c *gin.Context) {
	var req addExpenseRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	tripID, err := decodeTripID(req.TripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	amount, err := parseAmountField(req.Amount)
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Msg: "Category and amount required"})
		return
	}
	if _, err := a.expenseService(c).Add(int64(currentUserID(c)), tripID, req.Category, amount, req.Description); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"message": "Expense added successfully"})
}

// GET /get-expenses/:trip_id
func (a *App) GetExpenses(c *gin.Context) {
	tripID, ok := paramID(c, "trip_id")
	if !ok {
		return
	}
	_, sum, err := a.expenseService(c).Summary(int64(currentUserID(c)), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{
		"trip_budget":      sum.TripBudget,
		"total_spent":      sum.TotalSpent,
		"remaining_budget": sum.RemainingBudget,
		"expenses":         sum.Expenses,
	})
}

// parseAmountField accepts a JSON number or a string like "1,500".
func parseAmountField(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return utils.ParseAmount(s)
}
