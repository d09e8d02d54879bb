package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnector/internal/domain/entity"
	repo "github.com/oksasatya/devconnector/internal/domain/repository"
	"github.com/oksasatya/devconnector/pkg/helpers"
	"github.com/oksasatya/devconnector/pkg/mailer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists")
)

// UserService owns registration, login and the "who am I" lookup. Tokens are
// stateless, so both register and login just issue one and hand it back.
type UserService struct {
	Repo        repo.UserRepository
	JWT         *helpers.JWTManager
	GCS         *storage.Client
	GCSBucket   string
	Pub         *helpers.RabbitPublisher
	Logger      *logrus.Logger
	MailEnabled bool
}

func NewUserService(users repo.UserRepository, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, pub *helpers.RabbitPublisher, logger *logrus.Logger, mailEnabled bool) *UserService {
	return &UserService{
		Repo:        users,
		JWT:         jwt,
		GCS:         gcs,
		GCSBucket:   gcsBucket,
		Pub:         pub,
		Logger:      logger,
		MailEnabled: mailEnabled,
	}
}

// Register creates the identity and issues a token for it. The avatar starts
// as a gravatar URL derived from the email. A welcome email is queued
// best-effort; a broken queue never fails a registration.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*entity.User, string, error) {
	digest, err := helpers.HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	u := &entity.User{
		Email:     email,
		Password:  digest,
		Name:      name,
		AvatarURL: helpers.GravatarURL(email),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, _, err := s.JWT.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}

	if s.Pub != nil && s.MailEnabled {
		job := mailer.EmailJob{
			To:      u.Email,
			Subject: "Welcome to DevConnector",
			Text:    "Hi " + u.Name + ", your account is ready. Create your profile to get started.",
		}
		if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("email", u.Email).Warn("welcome email enqueue failed")
		}
	}

	return u, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, "", ErrInvalidCredentials
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, _, err := s.JWT.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// CurrentUser resolves a verified subject id to the identity record. The
// token outliving its identity is possible (account deleted after issuance),
// so callers must treat ErrUserNotFound as an invalid credential.
func (s *UserService) CurrentUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UploadAvatar stores the image in GCS and points the identity's avatar at it.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	if _, err := s.Repo.GetByID(ctx, userID); err != nil {
		return "", ErrUserNotFound
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.Repo.UpdateAvatar(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}
