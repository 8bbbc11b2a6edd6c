package users

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-app/fixpoint/internal/authz"
)

// Repository defines data access for the user directory.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	UserRoles(ctx context.Context, userID, companyID int64) ([]authz.Role, error)
	AddRole(ctx context.Context, userID, companyID int64, role authz.Role) error
	RemoveRole(ctx context.Context, userID, companyID int64, role authz.Role) error
	SetActive(ctx context.Context, companyID, id int64, active bool) error
	CountAdmins(ctx context.Context, companyID int64) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, name, company_id, location_id, role, is_active, created_at, updated_at
		 FROM users WHERE id = $1 AND company_id = $2`, id, companyID)
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CompanyID, &u.LocationID, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("users: get: %w", err)
	}
	u.Role = authz.Role(role)
	roles, err := r.UserRoles(ctx, u.ID, companyID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	q := r.sb.Select("id", "email", "name", "company_id", "location_id", "role", "is_active", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"company_id": filter.CompanyID}).
		OrderBy("name ASC")
	countQ := r.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"company_id": filter.CompanyID})

	if filter.IsActive != nil {
		q = q.Where(sq.Eq{"is_active": *filter.IsActive})
		countQ = countQ.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	if filter.Role != "" {
		q = q.Where(sq.Eq{"role": string(filter.Role)})
		countQ = countQ.Where(sq.Eq{"role": string(filter.Role)})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		cond := sq.Or{sq.ILike{"name": like}, sq.ILike{"email": like}}
		q = q.Where(cond)
		countQ = countQ.Where(cond)
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("users: build list query: %w", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CompanyID, &u.LocationID, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("users: scan: %w", err)
		}
		u.Role = authz.Role(role)
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("users: iterate: %w", err)
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("users: build count query: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}
	return result, total, nil
}

// UserRoles returns the persisted role assignments for a user within one
// company. This is the authoritative fallback tier for authorization.
func (r *PGRepository) UserRoles(ctx context.Context, userID, companyID int64) ([]authz.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role FROM user_company_roles WHERE user_id = $1 AND company_id = $2 ORDER BY assigned_at`,
		userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("users: roles: %w", err)
	}
	defer rows.Close()
	var roles []authz.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("users: scan role: %w", err)
		}
		roles = append(roles, authz.Role(role))
	}
	return roles, rows.Err()
}

func (r *PGRepository) AddRole(ctx context.Context, userID, companyID int64, role authz.Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_company_roles (user_id, company_id, role, assigned_at)
		 VALUES ($1, $2, $3, NOW()) ON CONFLICT DO NOTHING`,
		userID, companyID, string(role))
	return err
}

func (r *PGRepository) RemoveRole(ctx context.Context, userID, companyID int64, role authz.Role) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_company_roles WHERE user_id = $1 AND company_id = $2 AND role = $3`,
		userID, companyID, string(role))
	return err
}

func (r *PGRepository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $3, updated_at = NOW() WHERE id = $1 AND company_id = $2`,
		id, companyID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) CountAdmins(ctx context.Context, companyID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE company_id = $1 AND role = 'admin' AND is_active`,
		companyID).Scan(&count)
	return count, err
}

var (
	_ Repository      = (*PGRepository)(nil)
	_ authz.Directory = (*PGRepository)(nil)
)
