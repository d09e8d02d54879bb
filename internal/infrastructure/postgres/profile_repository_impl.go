package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/devconnector/internal/domain/entity"
	"github.com/oksasatya/devconnector/internal/domain/repository"
)

type ProfileRepository struct {
	db PgxPool
}

func NewProfileRepository(db PgxPool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// upsertSQL is a single atomic find-or-create. Empty strings mean "not
// provided": NULLIF turns them into NULLs so COALESCE keeps the stored value
// on update. Status, skills and social are always provided and overwrite.
const upsertSQL = `
	INSERT INTO profiles (owner_id, company, website, location, bio, status, github_username, skills, social)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (owner_id) DO UPDATE SET
		company         = COALESCE(NULLIF(EXCLUDED.company, ''), profiles.company),
		website         = COALESCE(NULLIF(EXCLUDED.website, ''), profiles.website),
		location        = COALESCE(NULLIF(EXCLUDED.location, ''), profiles.location),
		bio             = COALESCE(NULLIF(EXCLUDED.bio, ''), profiles.bio),
		status          = EXCLUDED.status,
		github_username = COALESCE(NULLIF(EXCLUDED.github_username, ''), profiles.github_username),
		skills          = EXCLUDED.skills,
		social          = EXCLUDED.social,
		updated_at      = now()
	RETURNING owner_id, company, website, location, bio, status, github_username,
		skills, social, experience, education, created_at, updated_at`

func (r *ProfileRepository) Upsert(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	social, err := json.Marshal(p.Social)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, upsertSQL,
		p.OwnerID, p.Company, p.Website, p.Location, p.Bio, p.Status,
		p.GithubUsername, p.Skills, social)
	return scanProfile(row)
}

const selectSQL = `
	SELECT p.owner_id, u.name, u.avatar_url, p.company, p.website, p.location,
		p.bio, p.status, p.github_username, p.skills, p.social, p.experience,
		p.education, p.created_at, p.updated_at
	FROM profiles p
	JOIN users u ON u.id = p.owner_id`

func (r *ProfileRepository) GetByOwner(ctx context.Context, ownerID string) (*entity.Profile, error) {
	row := r.db.QueryRow(ctx, selectSQL+` WHERE p.owner_id = $1`, ownerID)
	return scanProfileWithOwner(row)
}

func (r *ProfileRepository) ListAll(ctx context.Context) ([]entity.Profile, error) {
	rows, err := r.db.Query(ctx, selectSQL+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Profile{}
	for rows.Next() {
		p, err := scanProfileWithOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// returningSQL is shared by the list-mutation statements below.
const returningSQL = `
	RETURNING owner_id, company, website, location, bio, status, github_username,
		skills, social, experience, education, created_at, updated_at`

func (r *ProfileRepository) AddExperience(ctx context.Context, ownerID string, e entity.Experience) (*entity.Profile, error) {
	return r.prepend(ctx, "experience", ownerID, e)
}

func (r *ProfileRepository) AddEducation(ctx context.Context, ownerID string, e entity.Education) (*entity.Profile, error) {
	return r.prepend(ctx, "education", ownerID, e)
}

// prepend inserts the entry at position 0 of the named jsonb column in a
// single document update.
func (r *ProfileRepository) prepend(ctx context.Context, col, ownerID string, entry any) (*entity.Profile, error) {
	b, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
	UPDATE profiles
	SET `+col+` = jsonb_insert(`+col+`, '{0}', $2::jsonb, false), updated_at = now()
	WHERE owner_id = $1`+returningSQL, ownerID, b)
	return scanProfile(row)
}

func (r *ProfileRepository) RemoveExperience(ctx context.Context, ownerID, entryID string) (*entity.Profile, error) {
	return r.remove(ctx, "experience", ownerID, entryID)
}

func (r *ProfileRepository) RemoveEducation(ctx context.Context, ownerID, entryID string) (*entity.Profile, error) {
	return r.remove(ctx, "education", ownerID, entryID)
}

// remove excises the entry with the given id, preserving the order of the
// remaining entries. The containment guard makes a missing id report as
// ErrNotFound instead of silently rewriting the array.
func (r *ProfileRepository) remove(ctx context.Context, col, ownerID, entryID string) (*entity.Profile, error) {
	row := r.db.QueryRow(ctx, `
	UPDATE profiles
	SET `+col+` = (
		SELECT COALESCE(jsonb_agg(elem ORDER BY idx), '[]'::jsonb)
		FROM jsonb_array_elements(`+col+`) WITH ORDINALITY AS t(elem, idx)
		WHERE elem->>'id' <> $2
	), updated_at = now()
	WHERE owner_id = $1
	  AND `+col+` @> jsonb_build_array(jsonb_build_object('id', $2::text))`+returningSQL,
		ownerID, entryID)
	return scanProfile(row)
}

func (r *ProfileRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	// Absence is not an error: cascade deletion proceeds to the identity
	// even when the owner never created a profile.
	_, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE owner_id = $1`, ownerID)
	return err
}

func scanProfile(row pgx.Row) (*entity.Profile, error) {
	p := &entity.Profile{}
	err := row.Scan(&p.OwnerID, &p.Company, &p.Website, &p.Location, &p.Bio,
		&p.Status, &p.GithubUsername, &p.Skills, &p.Social, &p.Experience,
		&p.Education, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanProfileWithOwner(row pgx.Row) (*entity.Profile, error) {
	p := &entity.Profile{}
	err := row.Scan(&p.OwnerID, &p.OwnerName, &p.OwnerAvatar, &p.Company,
		&p.Website, &p.Location, &p.Bio, &p.Status, &p.GithubUsername,
		&p.Skills, &p.Social, &p.Experience, &p.Education, &p.CreatedAt,
		&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
