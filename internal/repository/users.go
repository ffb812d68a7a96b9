package repository

import (
	"context"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
)

const userColumns = `id, username, password_hash, full_name, email, role, center_id, is_active, created_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.CenterID, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) getUser(ctx context.Context, column string, value any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, value))
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, "username", username)
}

// GetActiveStaff lists the active staff members of a center ordered by
// name. centerID 0 lists every center.
func (r *Repository) GetActiveStaff(ctx context.Context, centerID int64) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = 'staff' AND is_active AND ($1::bigint = 0 OR center_id = $1)
		ORDER BY full_name, id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, centerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, user)
	}

	return staff, rows.Err()
}

// UpdatePassword stores a new hash for user, guarded by its version.
// sql.ErrNoRows means the account changed in between.
func (r *Repository) UpdatePassword(ctx context.Context, user *domain.User, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, version = version + 1
		WHERE id = $2 AND version = $3 AND is_active
		RETURNING version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, passwordHash, user.ID, user.Version).Scan(&user.Version); err != nil {
		return err
	}
	user.PasswordHash = passwordHash

	return nil
}

// CreateUser inserts a staff account. A duplicate username or email fails
// with users_username_key or users_email_key.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash, full_name, email, role, center_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{user.Username, user.PasswordHash, user.FullName, user.Email, user.Role, user.CenterID}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.Version)
}
