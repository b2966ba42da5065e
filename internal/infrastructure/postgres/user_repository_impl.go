package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/domain/repository"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, email, password_hash, first_name, last_name, date_of_birth, gender, phone,
		is_active, is_verified, verified_at, last_login_at, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.DateOfBirth, &u.Gender, &u.Phone, &u.IsActive, &u.IsVerified,
		&u.VerifiedAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a new user. The caller supplies the already-hashed
// credential; a unique violation on the active-email index is remapped to the
// same conflict a synchronous duplicate check produces.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, date_of_birth, gender, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, is_verified, created_at, updated_at
	`, u.Email, u.Password, u.FirstName, u.LastName, u.DateOfBirth, u.Gender, u.Phone)

	if err := row.Scan(&u.ID, &u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND is_active = true
	`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1 AND is_active = true
	`, email)
	return scanUser(row)
}

// GetByEmailForAuth does not filter on is_active so the service layer can
// distinguish a deactivated account from an unknown one. The partial unique
// index frees a soft-deleted account's address for re-registration, so an
// address can match several rows: at most one active, the rest inactive.
// The active row must win; among inactive rows, the newest.
func (r *UserRepository) GetByEmailForAuth(ctx context.Context, email string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
		ORDER BY is_active DESC, created_at DESC
		LIMIT 1
	`, email)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context, f entity.ListFilter) ([]*entity.User, int64, error) {
	where := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	where = append(where, "is_active = "+arg(active))

	if f.Gender != "" {
		where = append(where, "gender = "+arg(f.Gender))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, "(first_name ILIKE "+p+" OR last_name ILIKE "+p+" OR email ILIKE "+p+")")
	}
	clause := "WHERE " + strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM users "+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortBy := f.SortBy
	if !sortBy.Valid() {
		sortBy = entity.SortByCreatedAt
	}
	order := "ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		order = "DESC"
	}

	limit := f.Limit
	if limit > entity.MaxListLimit {
		limit = entity.MaxListLimit
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		%s
		ORDER BY %s %s
		LIMIT %s OFFSET %s
	`, userColumns, clause, sortBy, order, arg(limit), arg(f.Offset()))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0, limit)
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
			&u.DateOfBirth, &u.Gender, &u.Phone, &u.IsActive, &u.IsVerified,
			&u.VerifiedAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update touches only the supplied fields and always refreshes updated_at.
func (r *UserRepository) Update(ctx context.Context, id string, in entity.UserUpdate) (*entity.User, error) {
	sets := []string{"updated_at = now()"}
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if in.Email != nil {
		set("email", *in.Email)
	}
	if in.FirstName != nil {
		set("first_name", *in.FirstName)
	}
	if in.LastName != nil {
		set("last_name", *in.LastName)
	}
	if in.DateOfBirth != nil {
		set("date_of_birth", *in.DateOfBirth)
	}
	if in.Gender != nil {
		set("gender", *in.Gender)
	}
	if in.Phone != nil {
		set("phone", *in.Phone)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d AND is_active = true
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), userColumns)

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

// SoftDelete marks the record inactive. Already-inactive or missing records
// are reported as not affected, never an error.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
	`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, hash string) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = now()
		WHERE id = $2 AND is_active = true
	`, hash, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) SetVerified(ctx context.Context, id string) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_verified = true, verified_at = now(), updated_at = now()
		WHERE id = $1 AND is_active = true
	`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET last_login_at = now()
		WHERE id = $1
	`, id)
	return err
}

func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE is_active = true`).Scan(&n)
	return n, err
}

func (r *UserRepository) GetRecentlyCreated(ctx context.Context, hours int) ([]*entity.User, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_active = true AND created_at >= $1
		ORDER BY created_at DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
			&u.DateOfBirth, &u.Gender, &u.Phone, &u.IsActive, &u.IsVerified,
			&u.VerifiedAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
