package repo

import (
	"context"

	dom "userapi/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepo provides user persistence. Lookup misses surface as pgx.ErrNoRows;
// the service layer decides what a miss means.
type UserRepo interface {
	Create(ctx context.Context, u dom.User) (dom.User, error)
	GetByID(ctx context.Context, id int64) (dom.User, error)
	GetByUsername(ctx context.Context, username string) (dom.User, error)
	List(ctx context.Context, limit, offset int) ([]dom.User, error)
	Update(ctx context.Context, id int64, u dom.User) (dom.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db *pgxpool.Pool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(db *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, profile_picture, profile_description, created_at, updated_at`

// Create inserts a new user and returns it.
func (r *PGUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	query := `
		INSERT INTO usuario (username, email, password_hash, profile_picture, profile_description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	var out dom.User
	err := r.db.QueryRow(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.ProfilePicture, u.ProfileDescription,
	).Scan(
		&out.ID, &out.Username, &out.Email, &out.PasswordHash,
		&out.ProfilePicture, &out.ProfileDescription, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

// GetByID returns the user by id.
func (r *PGUserRepo) GetByID(ctx context.Context, id int64) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuario WHERE id = $1`, id,
	).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.ProfilePicture, &u.ProfileDescription, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// GetByUsername returns the user by username.
func (r *PGUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuario WHERE username = $1`, username,
	).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.ProfilePicture, &u.ProfileDescription, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// List returns users in insertion order, offset-paginated.
func (r *PGUserRepo) List(ctx context.Context, limit, offset int) ([]dom.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM usuario ORDER BY id ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.User
	for rows.Next() {
		var u dom.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.ProfilePicture, &u.ProfileDescription, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Update overwrites the mutable columns and returns the refreshed row.
func (r *PGUserRepo) Update(ctx context.Context, id int64, u dom.User) (dom.User, error) {
	query := `
		UPDATE usuario
		SET username = $2, email = $3, password_hash = $4,
		    profile_picture = $5, profile_description = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	var out dom.User
	err := r.db.QueryRow(ctx, query, id,
		u.Username, u.Email, u.PasswordHash, u.ProfilePicture, u.ProfileDescription,
	).Scan(
		&out.ID, &out.Username, &out.Email, &out.PasswordHash,
		&out.ProfilePicture, &out.ProfileDescription, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

// Delete removes the row; the bool reports whether a row existed.
func (r *PGUserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM usuario WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
