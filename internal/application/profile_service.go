package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnector/internal/domain/entity"
	repo "github.com/oksasatya/devconnector/internal/domain/repository"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEntryNotFound   = errors.New("entry not found")
)

// ProfileService owns the profile aggregate: idempotent upsert and the
// ordered experience/education sub-collections. Every mutation requires the
// caller to have passed the auth gate; ownerID is the verified subject.
type ProfileService struct {
	Profiles repo.ProfileRepository
	Users    repo.UserRepository
	Logger   *logrus.Logger
	ES       *elasticsearch.Client
	ESIndex  string
}

func NewProfileService(profiles repo.ProfileRepository, users repo.UserRepository, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *ProfileService {
	return &ProfileService{Profiles: profiles, Users: users, Logger: logger, ES: es, ESIndex: esIndex}
}

// ProfileInput carries the upsert fields. Empty strings mean "not provided"
// and leave the stored value untouched on update. Skills is the raw
// comma-separated form.
type ProfileInput struct {
	Company        string
	Website        string
	Location       string
	Bio            string
	Status         string
	GithubUsername string
	Skills         string
	Youtube        string
	Twitter        string
	Facebook       string
	Linkedin       string
	Instagram      string
}

// Upsert creates the aggregate on first call and merges on later calls.
// Safe to repeat with identical input; the repository guarantees a single
// aggregate per owner even under concurrent first-time calls.
func (s *ProfileService) Upsert(ctx context.Context, ownerID string, in ProfileInput) (*entity.Profile, error) {
	skills := make([]string, 0)
	for _, sk := range strings.Split(in.Skills, ",") {
		sk = strings.TrimSpace(sk)
		if sk != "" {
			skills = append(skills, sk)
		}
	}

	p := &entity.Profile{
		OwnerID:        ownerID,
		Company:        in.Company,
		Website:        in.Website,
		Location:       in.Location,
		Bio:            in.Bio,
		Status:         in.Status,
		GithubUsername: in.GithubUsername,
		Skills:         skills,
		Social: entity.Social{
			Youtube:   in.Youtube,
			Twitter:   in.Twitter,
			Facebook:  in.Facebook,
			Linkedin:  in.Linkedin,
			Instagram: in.Instagram,
		},
	}

	saved, err := s.Profiles.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}
	s.indexProfile(ctx, saved)
	return saved, nil
}

func (s *ProfileService) GetByOwner(ctx context.Context, ownerID string) (*entity.Profile, error) {
	p, err := s.Profiles.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListAll is the public directory read; no gate.
func (s *ProfileService) ListAll(ctx context.Context) ([]entity.Profile, error) {
	return s.Profiles.ListAll(ctx)
}

// ExperienceInput mirrors the experience form fields.
type ExperienceInput struct {
	Title       string
	Company     string
	Location    string
	From        string
	To          string
	Current     bool
	Description string
}

// AddExperience prepends a new entry; most-recent-first is a product
// invariant. An end date on a current position is ignored.
func (s *ProfileService) AddExperience(ctx context.Context, ownerID string, in ExperienceInput) (*entity.Profile, error) {
	e := entity.Experience{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		From:        in.From,
		To:          in.To,
		Current:     in.Current,
		Description: in.Description,
	}
	if e.Current {
		e.To = ""
	}
	p, err := s.Profiles.AddExperience(ctx, ownerID, e)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) RemoveExperience(ctx context.Context, ownerID, entryID string) (*entity.Profile, error) {
	p, err := s.Profiles.RemoveExperience(ctx, ownerID, entryID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return p, nil
}

// EducationInput mirrors the education form fields.
type EducationInput struct {
	School       string
	Degree       string
	FieldOfStudy string
	From         string
	To           string
	Current      bool
	Description  string
}

func (s *ProfileService) AddEducation(ctx context.Context, ownerID string, in EducationInput) (*entity.Profile, error) {
	e := entity.Education{
		ID:           uuid.NewString(),
		School:       in.School,
		Degree:       in.Degree,
		FieldOfStudy: in.FieldOfStudy,
		From:         in.From,
		To:           in.To,
		Current:      in.Current,
		Description:  in.Description,
	}
	if e.Current {
		e.To = ""
	}
	p, err := s.Profiles.AddEducation(ctx, ownerID, e)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) RemoveEducation(ctx context.Context, ownerID, entryID string) (*entity.Profile, error) {
	p, err := s.Profiles.RemoveEducation(ctx, ownerID, entryID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return p, nil
}

// DeleteOwnerCascade removes the aggregate, then the identity. A missing
// aggregate is fine. If the identity delete fails after the aggregate is
// gone we are left with an orphaned user record; that window is accepted but
// must be reported, never swallowed.
func (s *ProfileService) DeleteOwnerCascade(ctx context.Context, ownerID string) error {
	if err := s.Profiles.DeleteByOwner(ctx, ownerID); err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Identity already gone; cascade is idempotent.
			return nil
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("owner_id", ownerID).
				Error("identity delete failed after profile removal; orphaned user record")
		}
		return err
	}
	return nil
}

// indexProfile mirrors the aggregate into Elasticsearch, best-effort.
func (s *ProfileService) indexProfile(ctx context.Context, p *entity.Profile) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"owner_id":   p.OwnerID,
		"status":     p.Status,
		"skills":     p.Skills,
		"bio":        p.Bio,
		"location":   p.Location,
		"company":    p.Company,
		"updated_at": p.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: p.OwnerID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("owner_id", p.OwnerID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("owner_id", p.OwnerID).Warn("es index response error")
	}
}

// Search performs a multi_match query over the indexed profile fields.
// Returns an empty result when Elasticsearch is not configured.
func (s *ProfileService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"status^2", "skills^2", "bio", "location", "company"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
