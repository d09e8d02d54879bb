package application

import (
	"context"
	"strconv"
	"sync"

	"github.com/oksasatya/devconnector/internal/domain/entity"
	repo "github.com/oksasatya/devconnector/internal/domain/repository"
)

// fakeUsers is an in-memory UserRepository.
type fakeUsers struct {
	mu     sync.Mutex
	seq    int
	byID   map[string]*entity.User
	delErr error
}

var _ repo.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*entity.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.byID {
		if ex.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	f.seq++
	u.ID = "u" + strconv.Itoa(f.seq)
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.AvatarURL = avatarURL
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	if _, ok := f.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeProfiles is an in-memory ProfileRepository with the same merge and
// ordering semantics as the SQL implementation. The mutex stands in for the
// database's statement-level atomicity.
type fakeProfiles struct {
	mu      sync.Mutex
	byOwner map[string]*entity.Profile
}

var _ repo.ProfileRepository = (*fakeProfiles)(nil)

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byOwner: map[string]*entity.Profile{}}
}

func merge(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func (f *fakeProfiles) Upsert(_ context.Context, p *entity.Profile) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ex, ok := f.byOwner[p.OwnerID]
	if !ok {
		cpy := *p
		if cpy.Experience == nil {
			cpy.Experience = []entity.Experience{}
		}
		if cpy.Education == nil {
			cpy.Education = []entity.Education{}
		}
		f.byOwner[p.OwnerID] = &cpy
		c := cpy
		return &c, nil
	}
	merge(&ex.Company, p.Company)
	merge(&ex.Website, p.Website)
	merge(&ex.Location, p.Location)
	merge(&ex.Bio, p.Bio)
	merge(&ex.GithubUsername, p.GithubUsername)
	ex.Status = p.Status
	ex.Skills = p.Skills
	ex.Social = p.Social
	c := *ex
	return &c, nil
}

func (f *fakeProfiles) GetByOwner(_ context.Context, ownerID string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeProfiles) ListAll(_ context.Context) ([]entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Profile{}
	for _, p := range f.byOwner {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProfiles) AddExperience(_ context.Context, ownerID string, e entity.Experience) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	p.Experience = append([]entity.Experience{e}, p.Experience...)
	c := *p
	return &c, nil
}

func (f *fakeProfiles) RemoveExperience(_ context.Context, ownerID, entryID string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	for i, e := range p.Experience {
		if e.ID == entryID {
			p.Experience = append(p.Experience[:i:i], p.Experience[i+1:]...)
			c := *p
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeProfiles) AddEducation(_ context.Context, ownerID string, e entity.Education) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	p.Education = append([]entity.Education{e}, p.Education...)
	c := *p
	return &c, nil
}

func (f *fakeProfiles) RemoveEducation(_ context.Context, ownerID, entryID string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	for i, e := range p.Education {
		if e.ID == entryID {
			p.Education = append(p.Education[:i:i], p.Education[i+1:]...)
			c := *p
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeProfiles) DeleteByOwner(_ context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byOwner, ownerID)
	return nil
}
