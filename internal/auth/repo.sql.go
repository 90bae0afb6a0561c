package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultRole is granted to every freshly registered principal. The name
// matches the seeded role catalogue.
const defaultRole = "client"

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const principalColumns = `u.id, u.name, u.email, u.password_hash, u.credential_hash, u.verified_at, u.is_active, u.created_at, u.updated_at,
	COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles`

const principalJoins = `FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id`

func (r *PGRepository) scanPrincipal(row pgx.Row) (*Principal, error) {
	var p Principal
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.CredentialHash, &p.VerifiedAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.Roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByCredentialHash fetches the single principal owning the given hash.
// The store holds a unique index on credential_hash; seeing two rows means
// the invariant broke and is reported as ErrHashCollision.
func (r *PGRepository) FindByCredentialHash(ctx context.Context, hash string) (*Principal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+principalColumns+` `+principalJoins+` WHERE u.credential_hash = $1 GROUP BY u.id LIMIT 2`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found *Principal
	for rows.Next() {
		var p Principal
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.CredentialHash, &p.VerifiedAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.Roles); err != nil {
			return nil, err
		}
		if found != nil {
			return nil, ErrHashCollision
		}
		cp := p
		found = &cp
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// FindByEmail fetches a principal by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` `+principalJoins+` WHERE u.email = $1 GROUP BY u.id`, email)
	return r.scanPrincipal(row)
}

// FindByID fetches a principal by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` `+principalJoins+` WHERE u.id = $1 GROUP BY u.id`, id)
	return r.scanPrincipal(row)
}

// Create inserts a new principal with its first credential hash and the
// default client role.
func (r *PGRepository) Create(ctx context.Context, name, email, passwordHash, credentialHash string) (*Principal, error) {
	now := time.Now().UTC()
	var p Principal
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, credential_hash, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		 RETURNING id, name, email, password_hash, credential_hash, verified_at, is_active, created_at, updated_at`,
		name, email, passwordHash, credentialHash, now,
	).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.CredentialHash, &p.VerifiedAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) SELECT $1, id FROM roles WHERE name = $2 ON CONFLICT DO NOTHING`,
		p.ID, defaultRole,
	)
	if err != nil {
		return nil, err
	}
	p.Roles = []string{}
	if tag.RowsAffected() > 0 {
		p.Roles = []string{defaultRole}
	}
	return &p, nil
}

// ReplaceCredential rotates the stored credential hash, revoking the old one.
func (r *PGRepository) ReplaceCredential(ctx context.Context, id int64, credentialHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET credential_hash = $1, updated_at = $2 WHERE id = $3`, credentialHash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateEmail rewrites the principal's email and clears the verification
// state in the same statement, so a capability issued for the old address
// can never verify the new one.
func (r *PGRepository) UpdateEmail(ctx context.Context, id int64, email string) (*Principal, error) {
	var p Principal
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET email = $1, verified_at = NULL, updated_at = $2 WHERE id = $3
		 RETURNING id, name, email, password_hash, credential_hash, verified_at, is_active, created_at, updated_at`,
		email, time.Now().UTC(), id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.CredentialHash, &p.VerifiedAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	roles, err := r.GetRoles(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Roles = roles
	if p.Roles == nil {
		p.Roles = []string{}
	}
	return &p, nil
}

// SetVerified stamps the verification timestamp. The lifecycle manager only
// calls this for unverified principals, so the guard keeps the write
// idempotent under concurrent redemptions.
func (r *PGRepository) SetVerified(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET verified_at = $1, updated_at = $1 WHERE id = $2 AND verified_at IS NULL`, at.UTC(), id)
	return err
}

// GetRoles returns the role names assigned to a principal.
func (r *PGRepository) GetRoles(ctx context.Context, id int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = $1 ORDER BY r.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

var _ Repository = (*PGRepository)(nil)
