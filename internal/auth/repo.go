package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-app/fixpoint/internal/authz"
	"github.com/fixpoint-app/fixpoint/internal/platform/db"
	"github.com/fixpoint-app/fixpoint/internal/shared"
)

// ErrEmailTaken indicates a registration conflict.
var ErrEmailTaken = errors.New("auth: email already registered")

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	CreateAccount(ctx context.Context, companyName string, user User) (*User, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, company_id, location_id, role, is_active, created_at, updated_at`

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CompanyID, &u.LocationID, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	u.Role = authz.Role(role)
	return &u, nil
}

// FindByEmail fetches a user with auxiliary roles loaded.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := r.scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID fetches a user with auxiliary roles loaded.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := r.scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PGRepository) loadRoles(ctx context.Context, u *User) error {
	rows, err := r.pool.Query(ctx,
		`SELECT role FROM user_company_roles WHERE user_id = $1 AND company_id = $2 ORDER BY assigned_at`,
		u.ID, u.CompanyID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return err
		}
		u.Roles = append(u.Roles, authz.Role(role))
	}
	return rows.Err()
}

// CreateAccount provisions a new company together with its first admin user.
func (r *PGRepository) CreateAccount(ctx context.Context, companyName string, user User) (*User, error) {
	var created *User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var companyID int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO companies (name, created_at, updated_at) VALUES ($1, NOW(), NOW()) RETURNING id`,
			companyName).Scan(&companyID); err != nil {
			return err
		}
		var locationID int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO locations (company_id, name, created_at) VALUES ($1, 'Main', NOW()) RETURNING id`,
			companyID).Scan(&locationID); err != nil {
			return err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO users (email, name, password_hash, company_id, location_id, role, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
			 RETURNING `+userColumns,
			user.Email, user.Name, user.PasswordHash, companyID, locationID, string(user.Role))
		u, err := r.scanUser(row)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_company_roles (user_id, company_id, role, assigned_at) VALUES ($1, $2, $3, NOW())`,
			u.ID, companyID, string(user.Role)); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

// CreateSession persists a login session record for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua) VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`,
		id, userID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
