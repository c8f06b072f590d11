package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/repositories"
)

var tripCols = []string{"id", "user_id", "trip_name", "destination", "start_date", "end_date", "budget", "latitude", "longitude"}

func newMock(t *testing.T) (sqlmock.Sqlmock, repositories.UserRepository, repositories.TripRepository, repositories.ExpenseRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return mock, repositories.UserRepository{DB: db}, repositories.TripRepository{DB: db}, repositories.ExpenseRepository{DB: db}
}

func TestAuthSignupAndLogin(t *testing.T) {
	mock, users, _, _ := newMock(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := AuthService{Users: users, Secret: []byte("test-secret"), TTL: time.Hour, Now: func() time.Time { return now }, HashCost: bcrypt.MinCost}

	mock.ExpectExec("INSERT INTO users").WithArgs("Asha Rao", "asha@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	id, err := svc.Signup("  Asha   Rao ", "Asha@Example.com", "pw123")
	if err != nil || id != 7 {
		t.Fatalf("signup: id=%d err=%v", id, err)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw123"), bcrypt.MinCost)
	mock.ExpectQuery("FROM users WHERE email").WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow(7, "Asha Rao", "asha@example.com", string(hash), now))

	user, token, err := svc.Login("asha@example.com", "pw123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != 7 || token == "" {
		t.Fatalf("unexpected login result: %+v token=%q", user, token)
	}

	rc, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if rc.UserID != 7 || rc.Name != "Asha Rao" {
		t.Fatalf("unexpected request context: %+v", rc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthSignupRequiresAllFields(t *testing.T) {
	_, users, _, _ := newMock(t)
	svc := AuthService{Users: users, Secret: []byte("x"), HashCost: bcrypt.MinCost}

	_, err := svc.Signup("Asha", "", "pw")
	if !domain.IsValidation(err) || err.Error() != "All fields are required" {
		t.Fatalf("expected all-fields validation, got %v", err)
	}
	if _, err := svc.Signup("Asha", "not-an-email", "pw"); !domain.IsValidation(err) {
		t.Fatalf("expected email validation, got %v", err)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	mock, users, _, _ := newMock(t)
	svc := AuthService{Users: users, Secret: []byte("x")}

	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	mock.ExpectQuery("FROM users WHERE email").WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow(1, "Asha", "asha@example.com", string(hash), time.Now()))
	mock.ExpectQuery("FROM users WHERE email").WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}))

	for _, email := range []string{"asha@example.com", "ghost@example.com"} {
		_, _, err := svc.Login(email, "wrong")
		if !domain.IsUnauthorized(err) || err.Error() != "Invalid Credentials" {
			t.Fatalf("%s: expected invalid credentials, got %v", email, err)
		}
	}
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := AuthService{Secret: []byte("secret"), TTL: time.Hour, Now: func() time.Time { return now }}
	token, err := svc.IssueToken(models.User{ID: 3, Name: "Ravi"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	later := svc
	later.Now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := later.ParseToken(token); !domain.IsUnauthorized(err) || err.Error() != "Session expired" {
		t.Fatalf("expected expiry, got %v", err)
	}

	other := svc
	other.Secret = []byte("other")
	if _, err := other.ParseToken(token); !domain.IsUnauthorized(err) {
		t.Fatalf("expected signature failure, got %v", err)
	}
	if _, err := svc.ParseToken("garbage"); !domain.IsUnauthorized(err) {
		t.Fatalf("expected malformed token failure, got %v", err)
	}
}

func TestTripAddValidation(t *testing.T) {
	_, _, trips, _ := newMock(t)
	svc := TripService{Trips: trips}

	_, err := svc.Add(1, TripInput{Destination: "Goa", Latitude: 15.3, Longitude: 74.1})
	if err == nil || err.Error() != "Trip name, destination, and location are required" {
		t.Fatalf("expected required-fields error, got %v", err)
	}
	_, err = svc.Add(1, TripInput{TripName: "Beach", Destination: "Goa", Latitude: 15.3, Longitude: 74.1, StartDate: "2026-05-03", EndDate: "2026-05-01"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected date order validation, got %v", err)
	}
	_, err = svc.Add(1, TripInput{TripName: "Beach", Destination: "Goa", Latitude: 15.3, Longitude: 74.1, StartDate: "03/05/2026"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected date format validation, got %v", err)
	}
}

func TestTripAddStoresTrip(t *testing.T) {
	mock, _, trips, _ := newMock(t)
	svc := TripService{Trips: trips}

	mock.ExpectExec("INSERT INTO trips").
		WithArgs(int64(1), "Beach", "Goa, India", "2026-05-01", nil, 20000.0, 15.3, 74.1).
		WillReturnResult(sqlmock.NewResult(11, 1))
	id, err := svc.Add(1, TripInput{TripName: " Beach ", Destination: "Goa,  India", StartDate: "2026-05-01", Budget: 20000, Latitude: 15.3, Longitude: 74.1})
	if err != nil || id != 11 {
		t.Fatalf("add: id=%d err=%v", id, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTripGetOtherUsersTripIsForbidden(t *testing.T) {
	mock, _, trips, _ := newMock(t)
	svc := TripService{Trips: trips}

	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(tripCols).AddRow(10, 2, "Hills", "Shimla", nil, nil, 0.0, 31.1, 77.2))
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(tripCols))

	if _, err := svc.Get(1, 10); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err := svc.Get(1, 11)
	if !domain.IsNotFound(err) || err.Error() != "Trip not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTripUpdateChecksDatesAgainstStoredTrip(t *testing.T) {
	mock, _, trips, _ := newMock(t)
	svc := TripService{Trips: trips}

	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(tripCols).AddRow(10, 1, "Hills", "Shimla", "2026-06-10", "2026-06-12", 0.0, 31.1, 77.2))
	end := "2026-06-01"
	if err := svc.Update(1, 10, models.TripUpdate{EndDate: &end}); !domain.IsValidation(err) {
		t.Fatalf("expected validation, got %v", err)
	}

	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(tripCols).AddRow(10, 1, "Hills", "Shimla", "2026-06-10", "2026-06-12", 0.0, 31.1, 77.2))
	mock.ExpectExec("UPDATE trips SET").
		WithArgs("Hill Escape", nil, nil, nil, nil, nil, nil, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	name := "Hill Escape"
	if err := svc.Update(1, 10, models.TripUpdate{TripName: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTripDeleteMissingTrip(t *testing.T) {
	mock, _, trips, _ := newMock(t)
	svc := TripService{Trips: trips}

	mock.ExpectExec("DELETE FROM trips").WithArgs(int64(99), int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	err := svc.Delete(1, 99)
	if !domain.IsNotFound(err) || err.Error() != "Trip not found or not authorized" {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(1, 0); err == nil || !strings.Contains(err.Error(), "No trip id provided") {
		t.Fatalf("expected missing id error, got %v", err)
	}
}

func TestExpenseSummary(t *testing.T) {
	mock, _, trips, expenses := newMock(t)
	svc := ExpenseService{Trips: TripService{Trips: trips}, Expenses: expenses}

	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(tripCols).AddRow(5, 1, "Goa", "Goa", nil, nil, 10000.0, 15.3, 74.1))
	mock.ExpectQuery("FROM expenses WHERE trip_id").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "category", "amount", "description", "created_at"}).
			AddRow(2, 5, "Food", 1500.0, "Dinner", "2026-05-02 20:00:00").
			AddRow(1, 5, "Transport", 500.0, nil, "2026-05-01 08:00:00"))

	_, sum, err := svc.Summary(1, 5)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalSpent != 2000 || sum.RemainingBudget != 8000 || len(sum.Expenses) != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestExpenseAddValidation(t *testing.T) {
	_, _, trips, expenses := newMock(t)
	svc := ExpenseService{Trips: TripService{Trips: trips}, Expenses: expenses}

	_, err := svc.Add(1, 5, "Food", 0, "")
	if err == nil || err.Error() != "Category and amount required" {
		t.Fatalf("expected validation, got %v", err)
	}
}

func TestExpenseAddRunsInTransaction(t *testing.T) {
	mock, _, trips, expenses := newMock(t)
	svc := ExpenseService{Trips: TripService{Trips: trips}, Expenses: expenses}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(tripCols).AddRow(5, 1, "Goa", "Goa", nil, nil, 10000.0, 15.3, 74.1))
	mock.ExpectExec("INSERT INTO expenses").WithArgs(int64(5), "Food", 250.0, "Snacks").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	id, err := svc.Add(1, 5, " Food ", 250, " Snacks ")
	if err != nil || id != 9 {
		t.Fatalf("Add = %d, %v", id, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExpenseAddForeignTripRollsBack(t *testing.T) {
	mock, _, trips, expenses := newMock(t)
	svc := ExpenseService{Trips: TripService{Trips: trips}, Expenses: expenses}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(tripCols).AddRow(5, 2, "Goa", "Goa", nil, nil, 10000.0, 15.3, 74.1))
	mock.ExpectRollback()

	_, err := svc.Add(1, 5, "Food", 250, "")
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM trips WHERE id").WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows(tripCols))
	mock.ExpectRollback()

	_, err = svc.Add(1, 6, "Food", 250, "")
	if !domain.IsNotFound(err) || err.Error() != "Trip not found" {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReportServiceGenerate(t *testing.T) {
	loader := func(userID, tripID int64) (tripReportData, error) {
		return tripReportData{
			Trip: models.Trip{ID: tripID, TripName: "Goa Getaway", Destination: "Goa", StartDate: "2026-05-01", EndDate: "2026-05-03"},
			Summary: models.ExpenseSummary{
				TripBudget: 20000, TotalSpent: 1500, RemainingBudget: 18500,
				Expenses: []models.Expense{{ID: 1, TripID: tripID, Category: "Food", Amount: 1500, Description: "Dinner", CreatedAt: time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)}},
			},
			At: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		}, nil
	}
	svc := ReportService{Loader: loader}

	pdf, name, err := svc.GeneratePDF(1, 5)
	if err != nil {
		t.Fatalf("GeneratePDF returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) || name != "EXPENSES_5_Goa_Getaway.pdf" {
		t.Fatalf("unexpected pdf output: name=%q prefix=%q", name, pdf[:4])
	}

	raw, name, err := svc.GenerateXLSX(1, 5)
	if err != nil {
		t.Fatalf("GenerateXLSX returned error: %v", err)
	}
	if name != "EXPENSES_5_Goa_Getaway.xlsx" {
		t.Fatalf("unexpected xlsx name %q", name)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(expenseSheet, "B2"); v != "Food" {
		t.Fatalf("B2 = %q", v)
	}
	if v, _ := f.GetCellValue(expenseSheet, "C6"); v != "Remaining" {
		t.Fatalf("C6 = %q", v)
	}
}
