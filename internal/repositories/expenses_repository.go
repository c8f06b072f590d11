package repositories

import (
	"database/sql"

	intconfig "smarttravel/internal/config"
	intdb "smarttravel/internal/db"
	"smarttravel/internal/domain/models"
)

type ExpenseRepository struct {
	DB *sql.DB
}

func (r ExpenseRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Conn is the connection transactions over expenses are opened on.
func (r ExpenseRepository) Conn() *sql.DB {
	return r.db()
}

func (r ExpenseRepository) Create(e models.Expense) (int64, error) {
	return insertExpense(r.db(), e)
}

// CreateTx inserts e inside tx.
func (r ExpenseRepository) CreateTx(tx *sql.Tx, e models.Expense) (int64, error) {
	return insertExpense(tx, e)
}

func insertExpense(x execer, e models.Expense) (int64, error) {
	res, err := x.Exec(`INSERT INTO expenses (trip_id, category, amount, description) VALUES (?, ?, ?, ?)`,
		e.TripID, e.Category, e.Amount, intdb.NullIfEmpty(e.Description))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListByTrip returns a trip's expenses, newest first.
func (r ExpenseRepository) ListByTrip(tripID int64) ([]models.Expense, error) {
	rows, err := r.db().Query(`SELECT id, trip_id, category, amount, description, created_at
		FROM expenses WHERE trip_id = ? ORDER BY created_at DESC, id DESC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Expense{}
	for rows.Next() {
		var (
			e       models.Expense
			desc    sql.NullString
			created any
		)
		if err := rows.Scan(&e.ID, &e.TripID, &e.Category, &e.Amount, &desc, &created); err != nil {
			return nil, err
		}
		e.Description = intdb.StringOrEmpty(desc)
		e.CreatedAt = intdb.TimeValue(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
