package persistence

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

const userColumns = "id, name, email, avatar, password_hash, created_at"

type postgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(db *pgxpool.Pool) user.Repository {
	return &postgresUserRepo{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Avatar,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *postgresUserRepo) findOne(ctx context.Context, where sq.Eq, identifier string) (*user.User, error) {
	query, args, err := psql.Select(userColumns).From("users").Where(where).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build user query", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", identifier)
		}
		return nil, apperror.NewInternal("error when query user", err)
	}
	return u, nil
}

func (r *postgresUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email}, email)
}

func (r *postgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id}, id.String())
}

func (r *postgresUserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	users := make(map[uuid.UUID]*user.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query, args, err := psql.Select(userColumns).From("users").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build users query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query users", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperror.NewInternal("failed to scan user row", err)
		}
		users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating user rows", err)
	}
	return users, nil
}

func (r *postgresUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build delete user query", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to delete user", err)
	}
	return nil
}

// CreateUser inserts a user row. Registration lives outside this service;
// the seeder and integration tests use it.
func CreateUser(ctx context.Context, db *pgxpool.Pool, u *user.User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "name", "email", "avatar", "password_hash", "created_at").
		Values(u.ID, u.Name, u.Email, u.Avatar, u.PasswordHash, u.CreatedAt).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build insert user query", err)
	}
	if _, err := db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to insert user", err)
	}
	return nil
}
