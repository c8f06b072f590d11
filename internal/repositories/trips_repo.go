package repositories

import (
	"database/sql"
	"errors"

	intconfig "smarttravel/internal/config"
	intdb "smarttravel/internal/db"
	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
)

const tripColumns = `id, user_id, trip_name, destination, start_date, end_date, budget, latitude, longitude`

type TripRepository struct {
	DB *sql.DB
}

func (r TripRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r TripRepository) Create(t models.Trip) (int64, error) {
	res, err := r.db().Exec(`INSERT INTO trips (user_id, trip_name, destination, start_date, end_date, budget, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.TripName, t.Destination,
		intdb.NullIfEmpty(t.StartDate), intdb.NullIfEmpty(t.EndDate),
		t.Budget, t.Latitude, t.Longitude)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListByUser returns the user's trips, oldest first.
func (r TripRepository) ListByUser(userID int64) ([]models.Trip, error) {
	rows, err := r.db().Query(`SELECT `+tripColumns+` FROM trips WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r TripRepository) GetByID(id int64) (models.Trip, error) {
	return getTrip(r.db(), id)
}

// GetByIDTx reads a trip inside tx.
func (r TripRepository) GetByIDTx(tx *sql.Tx, id int64) (models.Trip, error) {
	return getTrip(tx, id)
}

func getTrip(q queryRower, id int64) (models.Trip, error) {
	row := q.QueryRow(`SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
	}
	return t, err
}

// Update applies the non-nil fields of u in one statement.
func (r TripRepository) Update(id int64, u models.TripUpdate) (bool, error) {
	res, err := r.db().Exec(`UPDATE trips SET
			trip_name   = COALESCE(?, trip_name),
			destination = COALESCE(?, destination),
			start_date  = COALESCE(?, start_date),
			end_date    = COALESCE(?, end_date),
			budget      = COALESCE(?, budget),
			latitude    = COALESCE(?, latitude),
			longitude   = COALESCE(?, longitude)
		WHERE id = ?`,
		nullString(u.TripName), nullString(u.Destination), nullString(u.StartDate), nullString(u.EndDate),
		intdb.NullFloat(u.Budget), intdb.NullFloat(u.Latitude), intdb.NullFloat(u.Longitude), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetBudget stores an estimated budget on a trip owned by userID.
func (r TripRepository) SetBudget(id, userID int64, budget float64) (bool, error) {
	res, err := r.db().Exec(`UPDATE trips SET budget = ? WHERE id = ? AND user_id = ?`, budget, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a trip owned by userID and reports whether a row was removed.
func (r TripRepository) Delete(id, userID int64) (bool, error) {
	res, err := r.db().Exec(`DELETE FROM trips WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// queryRower and execer are satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (models.Trip, error) {
	var (
		t                           models.Trip
		start, end                  sql.NullString
		budget, latitude, longitude sql.NullFloat64
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.TripName, &t.Destination, &start, &end, &budget, &latitude, &longitude); err != nil {
		return models.Trip{}, err
	}
	t.StartDate = intdb.StringOrEmpty(start)
	t.EndDate = intdb.StringOrEmpty(end)
	t.Budget = budget.Float64
	t.Latitude = latitude.Float64
	t.Longitude = longitude.Float64
	return t, nil
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
