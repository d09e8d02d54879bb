package repository

import (
	"context"

	"github.com/oksasatya/devconnector/internal/domain/entity"
)

// ProfileRepository defines persistence for the profile aggregate.
//
// Upsert must be a single atomic find-or-create: two concurrent first-time
// upserts for the same owner may never create two aggregates. List mutations
// (prepend/remove) are applied as one document update each.
type ProfileRepository interface {
	Upsert(ctx context.Context, p *entity.Profile) (*entity.Profile, error)
	GetByOwner(ctx context.Context, ownerID string) (*entity.Profile, error)
	ListAll(ctx context.Context) ([]entity.Profile, error)

	// AddExperience prepends the entry (position 0) in one update.
	AddExperience(ctx context.Context, ownerID string, e entity.Experience) (*entity.Profile, error)
	// RemoveExperience excises the entry by id, leaving the order of the
	// remaining entries unchanged; ErrNotFound when no such entry exists.
	RemoveExperience(ctx context.Context, ownerID, entryID string) (*entity.Profile, error)

	AddEducation(ctx context.Context, ownerID string, e entity.Education) (*entity.Profile, error)
	RemoveEducation(ctx context.Context, ownerID, entryID string) (*entity.Profile, error)

	// DeleteByOwner removes the aggregate; absence is not an error.
	DeleteByOwner(ctx context.Context, ownerID string) error
}
