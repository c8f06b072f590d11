package services

import (
	"database/sql"
	"strings"

	"smarttravel/internal/budget"
	intdb "smarttravel/internal/db"
	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/repositories"
	"smarttravel/internal/utils"
)

type ExpenseService struct {
	Trips     TripService
	Expenses  repositories.ExpenseRepository
	RequestID string
}

// Add records an expense on a trip owned by userID. The ownership check and
// the insert run in one transaction.
func (s ExpenseService) Add(userID, tripID int64, category string, amount float64, description string) (int64, error) {
	category = utils.NormalizeSpace(category)
	if category == "" || amount <= 0 {
		return 0, domain.ValidationError{Msg: "Category and amount required"}
	}
	if tripID <= 0 {
		return 0, domain.ValidationError{Field: "trip_id", Msg: "trip_id required"}
	}

	expense := models.Expense{
		TripID:      tripID,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(description),
	}
	var id int64
	err := intdb.Transaction(s.Expenses.Conn(), func(tx *sql.Tx) error {
		trip, err := s.Trips.Trips.GetByIDTx(tx, tripID)
		if _, err := ownedTrip(userID, trip, err); err != nil {
			return err
		}
		id, err = s.Expenses.CreateTx(tx, expense)
		return err
	})
	if err != nil {
		if domain.IsNotFound(err) || domain.IsForbidden(err) {
			return 0, err
		}
		return 0, domain.InternalError{Msg: "Failed to add expense", Err: err}
	}
	utils.LogEventf(s.RequestID, "expenses", "add", "trip_id=%d expense_id=%d", tripID, id)
	return id, nil
}

// Summary returns the trip and its budget tracker view.
func (s ExpenseService) Summary(userID, tripID int64) (models.Trip, models.ExpenseSummary, error) {
	trip, err := s.Trips.Get(userID, tripID)
	if err != nil {
		return models.Trip{}, models.ExpenseSummary{}, err
	}
	list, err := s.Expenses.ListByTrip(tripID)
	if err != nil {
		return models.Trip{}, models.ExpenseSummary{}, domain.InternalError{Msg: "Failed to load expenses", Err: err}
	}
	return trip, budget.Summarize(trip.Budget, list), nil
}
