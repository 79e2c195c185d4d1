package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mayor-schedule-api/internal/database"
	"github.com/mayor-schedule-api/internal/models"
)

// bootstrapLockID serializes first-admin promotion across concurrent
// callers via a transaction-scoped advisory lock.
const bootstrapLockID = 0x6d61796f72 // "mayor"

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, email, name, role, status, created_at, updated_at`

// Create inserts a new user record. Registration is idempotent: a record
// that already exists (the identity re-registering) is left untouched.
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Role, user.Status, time.Now(),
	)
	return err
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.Status,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// List retrieves all users ordered by registration time
func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.Email, &user.Name, &user.Role, &user.Status,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &user)
	}
	return out, rows.Err()
}

// UpdateRoleStatus changes a user's role and/or status. Empty values leave
// the corresponding column untouched.
func (r *userRepo) UpdateRoleStatus(ctx context.Context, id string, role models.Role, status models.Status) error {
	query := `
		UPDATE users
		SET role = COALESCE(NULLIF($2, ''), role),
		    status = COALESCE(NULLIF($3, ''), status),
		    updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, string(role), string(status))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// PromoteFirstAdmin upserts the user to role admin, status active, but only
// when no admin exists yet. The existence check and the write run under an
// advisory lock so concurrent first-time callers serialize; losers observe
// ErrAdminExists.
func (r *userRepo) PromoteFirstAdmin(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", bootstrapLockID); err != nil {
		return err
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE role = 'admin')",
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrAdminExists
	}

	query := `
		INSERT INTO users (id, role, status, created_at, updated_at)
		VALUES ($1, 'admin', 'active', now(), now())
		ON CONFLICT (id) DO UPDATE SET role = 'admin', status = 'active', updated_at = now()
	`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return tx.Commit()
}

// AddPushToken registers a push token for a user. Union semantics: a token
// already present for the user is not duplicated, and tokens from other
// devices are never overwritten.
func (r *userRepo) AddPushToken(ctx context.Context, userID, token string) error {
	query := `
		INSERT INTO push_tokens (user_id, token, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id, token) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, userID, token)
	return err
}

// DeletePushToken prunes a token that the push provider reported as
// permanently undeliverable, wherever it is registered.
func (r *userRepo) DeletePushToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM push_tokens WHERE token = $1`, token)
	return err
}

// ListTokensForRole retrieves every push token registered by active users
// holding the given role.
func (r *userRepo) ListTokensForRole(ctx context.Context, role models.Role) ([]string, error) {
	query := `
		SELECT t.token
		FROM push_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE u.role = $1 AND u.status = 'active'
	`
	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
