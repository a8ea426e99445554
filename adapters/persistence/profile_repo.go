package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const profileColumns = "id, user_id, company, website, location, status, skills, bio, githubusername, social, experience, education, updated_at"

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

func (r *postgresProfileRepo) scanProfile(row pgx.Row) (*profile.Profile, error) {
	p := &profile.Profile{}
	var skillsBytes, socialBytes, experienceBytes, educationBytes []byte

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Company,
		&p.Website,
		&p.Location,
		&p.Status,
		&skillsBytes,
		&p.Bio,
		&p.GithubUsername,
		&socialBytes,
		&experienceBytes,
		&educationBytes,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = p.UpdatedAt.UTC()

	// Unmarshal JSONB
	if err := json.Unmarshal(skillsBytes, &p.Skills); err != nil {
		r.logger.Warn("Failed to unmarshal skills", zap.String("profile_id", p.ID.String()), zap.Error(err))
		p.Skills = []string{}
	}
	if len(socialBytes) > 0 {
		if err := json.Unmarshal(socialBytes, &p.Social); err != nil {
			r.logger.Warn("Failed to unmarshal social", zap.String("profile_id", p.ID.String()), zap.Error(err))
			p.Social = nil
		}
	}
	if err := json.Unmarshal(experienceBytes, &p.Experience); err != nil || p.Experience == nil {
		if err != nil {
			r.logger.Warn("Failed to unmarshal experience", zap.String("profile_id", p.ID.String()), zap.Error(err))
		}
		p.Experience = []profile.Experience{}
	}
	if err := json.Unmarshal(educationBytes, &p.Education); err != nil || p.Education == nil {
		if err != nil {
			r.logger.Warn("Failed to unmarshal education", zap.String("profile_id", p.ID.String()), zap.Error(err))
		}
		p.Education = []profile.Education{}
	}
	return p, nil
}

// queryOne runs a statement returning profileColumns and maps no rows to not found.
func (r *postgresProfileRepo) queryOne(ctx context.Context, b sq.Sqlizer, userID uuid.UUID, action string) (*profile.Profile, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build "+action+" query", err)
	}

	p, err := r.scanProfile(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("profile", userID.String())
		}
		return nil, apperror.NewInternal("failed to "+action, err)
	}
	return p, nil
}

func (r *postgresProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	b := psql.Select(profileColumns).From("profiles").Where(sq.Eq{"user_id": userID})
	return r.queryOne(ctx, b, userID, "query profile")
}

func (r *postgresProfileRepo) List(ctx context.Context) ([]*profile.Profile, error) {
	query, args, err := psql.Select(profileColumns).From("profiles").OrderBy("updated_at DESC").ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list profiles query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to list profiles", err)
	}
	defer rows.Close()

	profiles := make([]*profile.Profile, 0)
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, apperror.NewInternal("failed to scan profile row", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating profile rows", err)
	}
	return profiles, nil
}

func (r *postgresProfileRepo) Upsert(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	skillsBytes, err := json.Marshal(p.Skills)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal skills", err)
	}
	var socialBytes []byte
	if p.Social != nil {
		if socialBytes, err = json.Marshal(p.Social); err != nil {
			return nil, apperror.NewInternal("failed to marshal social", err)
		}
	}
	experienceBytes, err := json.Marshal(nonNil(p.Experience))
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal experience", err)
	}
	educationBytes, err := json.Marshal(nonNil(p.Education))
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal education", err)
	}

	// Experience and education of an existing row are left alone.
	b := psql.Insert("profiles").
		Columns("id", "user_id", "company", "website", "location", "status", "skills",
			"bio", "githubusername", "social", "experience", "education", "updated_at").
		Values(p.ID, p.UserID, p.Company, p.Website, p.Location, p.Status, skillsBytes,
			p.Bio, p.GithubUsername, socialBytes, experienceBytes, educationBytes, p.UpdatedAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			company = EXCLUDED.company,
			website = EXCLUDED.website,
			location = EXCLUDED.location,
			status = EXCLUDED.status,
			skills = EXCLUDED.skills,
			bio = EXCLUDED.bio,
			githubusername = EXCLUDED.githubusername,
			social = EXCLUDED.social,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + profileColumns)

	return r.queryOne(ctx, b, p.UserID, "upsert profile")
}

func (r *postgresProfileRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query, args, err := psql.Delete("profiles").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build delete profile query", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to delete profile", err)
	}
	return nil
}

func (r *postgresProfileRepo) AddExperience(ctx context.Context, userID uuid.UUID, e profile.Experience) (*profile.Profile, error) {
	return r.prepend(ctx, userID, "experience", []profile.Experience{e})
}

func (r *postgresProfileRepo) RemoveExperience(ctx context.Context, userID uuid.UUID, entryID string) (*profile.Profile, error) {
	return r.remove(ctx, userID, "experience", entryID)
}

func (r *postgresProfileRepo) AddEducation(ctx context.Context, userID uuid.UUID, e profile.Education) (*profile.Profile, error) {
	return r.prepend(ctx, userID, "education", []profile.Education{e})
}

func (r *postgresProfileRepo) RemoveEducation(ctx context.Context, userID uuid.UUID, entryID string) (*profile.Profile, error) {
	return r.remove(ctx, userID, "education", entryID)
}

// prepend concatenates a one-element array in front of column in a single UPDATE.
func (r *postgresProfileRepo) prepend(ctx context.Context, userID uuid.UUID, column string, entry any) (*profile.Profile, error) {
	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return nil, apperror.NewInternal("failed to marshal "+column+" entry", err)
	}

	b := psql.Update("profiles").
		Set(column, sq.Expr(fmt.Sprintf("?::jsonb || %s", column), entryBytes)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING " + profileColumns)

	return r.queryOne(ctx, b, userID, "add "+column+" entry")
}

// remove filters column by _id in a single UPDATE. updated_at only moves when
// an entry actually went away.
func (r *postgresProfileRepo) remove(ctx context.Context, userID uuid.UUID, column, entryID string) (*profile.Profile, error) {
	filtered := fmt.Sprintf(`COALESCE((
		SELECT jsonb_agg(elem ORDER BY ord)
		FROM jsonb_array_elements(%s) WITH ORDINALITY AS t(elem, ord)
		WHERE elem->>'_id' <> ?
	), '[]'::jsonb)`, column)
	touched := fmt.Sprintf(`CASE WHEN EXISTS (
		SELECT 1 FROM jsonb_array_elements(%s) AS t(elem) WHERE elem->>'_id' = ?
	) THEN ?::timestamptz ELSE updated_at END`, column)

	b := psql.Update("profiles").
		Set(column, sq.Expr(filtered, entryID)).
		Set("updated_at", sq.Expr(touched, entryID, time.Now().UTC())).
		Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING " + profileColumns)

	return r.queryOne(ctx, b, userID, "remove "+column+" entry")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
