package repositories

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	intconfig "smarttravel/internal/config"
	intdb "smarttravel/internal/db"
	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Create inserts a user. A duplicate email is reported as a ConflictError.
func (r UserRepository) Create(name, email, passwordHash string) (int64, error) {
	res, err := r.db().Exec(`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		name, email, passwordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, domain.ConflictError{Resource: "user", Msg: "Email already exists", Err: err}
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r UserRepository) GetByEmail(email string) (models.User, error) {
	row := r.db().QueryRow(`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r UserRepository) GetByID(id int64) (models.User, error) {
	row := r.db().QueryRow(`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		u       models.User
		created any
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
		}
		return models.User{}, err
	}
	u.CreatedAt = intdb.TimeValue(created)
	return u, nil
}

// isDuplicateKey recognises unique-constraint violations from both drivers.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
