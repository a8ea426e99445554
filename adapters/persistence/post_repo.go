package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type postgresPostRepo struct {
	db *pgxpool.Pool
}

func NewPostgresPostRepo(db *pgxpool.Pool) post.Repository {
	return &postgresPostRepo{db: db}
}

func (r *postgresPostRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query, args, err := psql.Delete("posts").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, apperror.NewInternal("failed to build delete posts query", err)
	}
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, apperror.NewInternal("failed to delete posts", err)
	}
	return cmdTag.RowsAffected(), nil
}

// CreatePost inserts a post row. Posts are authored elsewhere; used by tests and the seeder.
func CreatePost(ctx context.Context, db *pgxpool.Pool, p *post.Post) error {
	query, args, err := psql.Insert("posts").
		Columns("id", "user_id", "text", "name", "avatar", "created_at").
		Values(p.ID, p.UserID, p.Text, p.Name, p.Avatar, p.CreatedAt).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build insert post query", err)
	}
	if _, err := db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to insert post", err)
	}
	return nil
}
