package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/devconnector/internal/application"
	"github.com/oksasatya/devconnector/internal/domain/entity"
	repo "github.com/oksasatya/devconnector/internal/domain/repository"
	"github.com/oksasatya/devconnector/internal/infrastructure/github"
	"github.com/oksasatya/devconnector/internal/interface/middleware"
	"github.com/oksasatya/devconnector/pkg/helpers"
	"github.com/oksasatya/devconnector/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validation.Init()
	os.Exit(m.Run())
}

// memUsers and memProfiles are just enough repository to drive the handlers.

type memUsers struct {
	seq  int
	byID map[string]*entity.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*entity.User{}} }

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	for _, ex := range m.byID {
		if ex.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	m.seq++
	u.ID = "user-" + string(rune('a'+m.seq-1))
	cpy := *u
	m.byID[u.ID] = &cpy
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	u, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.AvatarURL = avatarURL
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memProfiles struct {
	byOwner map[string]*entity.Profile
}

func newMemProfiles() *memProfiles { return &memProfiles{byOwner: map[string]*entity.Profile{}} }

func (m *memProfiles) Upsert(_ context.Context, p *entity.Profile) (*entity.Profile, error) {
	ex, ok := m.byOwner[p.OwnerID]
	if !ok {
		cpy := *p
		m.byOwner[p.OwnerID] = &cpy
		c := cpy
		return &c, nil
	}
	ex.Status = p.Status
	ex.Skills = p.Skills
	ex.Social = p.Social
	if p.Bio != "" {
		ex.Bio = p.Bio
	}
	if p.Company != "" {
		ex.Company = p.Company
	}
	c := *ex
	return &c, nil
}

func (m *memProfiles) GetByOwner(_ context.Context, ownerID string) (*entity.Profile, error) {
	p, ok := m.byOwner[ownerID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memProfiles) ListAll(_ context.Context) ([]entity.Profile, error) {
	out := []entity.Profile{}
	for _, p := range m.byOwner {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memProfiles) AddExperience(_ context.Context, ownerID string, e entity.Experience) (*entity.Profile, error) {
	p, ok := m.byOwner[ownerID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	p.Experience = append([]entity.Experience{e}, p.Experience...)
	c := *p
	return &c, nil
}

func (m *memProfiles) RemoveExperience(_ context.Context, ownerID, entryID string) (*entity.Profile, error) {
	p, ok := m.byOwner[ownerID]
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

func (m *memProfiles) AddEducation(_ context.Context, ownerID string, e entity.Education) (*entity.Profile, error) {
	p, ok := m.byOwner[ownerID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	p.Education = append([]entity.Education{e}, p.Education...)
	c := *p
	return &c, nil
}

func (m *memProfiles) RemoveEducation(_ context.Context, ownerID, entryID string) (*entity.Profile, error) {
	p, ok := m.byOwner[ownerID]
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

func (m *memProfiles) DeleteByOwner(_ context.Context, ownerID string) error {
	delete(m.byOwner, ownerID)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestRouter wires the real handlers, gate and services over in-memory
// repositories, mirroring the production route table.
func newTestRouter(t *testing.T, gh *github.Client) *gin.Engine {
	t.Helper()
	logger := quietLogger()
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	users := newMemUsers()
	profiles := newMemProfiles()

	usvc := application.NewUserService(users, jwt, nil, "", nil, logger, false)
	psvc := application.NewProfileService(profiles, users, logger, nil, "")

	ah := NewAuthHandler(usvc, logger)
	ph := NewProfileHandler(psvc, gh, logger)
	gate := middleware.Auth(jwt, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/users", ah.Register)
	api.POST("/auth", ah.Login)
	api.GET("/auth", gate, ah.Current)

	p := api.Group("/profile")
	p.GET("", ph.List)
	p.GET("/me", gate, ph.Me)
	p.POST("", gate, ph.Upsert)
	p.GET("/user/:user_id", ph.ByUser)
	p.DELETE("", gate, ph.Delete)
	p.PUT("/experience", gate, ph.AddExperience)
	p.DELETE("/experience/:exp_id", gate, ph.RemoveExperience)
	p.PUT("/education", gate, ph.AddEducation)
	p.DELETE("/education/:edu_id", gate, ph.RemoveEducation)
	if gh != nil {
		p.GET("/github/:username", ph.GithubRepos)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndToken(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/users", "", gin.H{
		"name": "Dev", "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegister_TokenOpensTheGate(t *testing.T) {
	r := newTestRouter(t, nil)
	token := registerAndToken(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/auth", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ada@example.com")
	require.Contains(t, w.Body.String(), "gravatar.com/avatar/")
	require.NotContains(t, w.Body.String(), "password")
}

func TestRegister_Validation(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/users", "", gin.H{
		"email": "not-an-email", "password": "12345",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Name is required")
	require.Contains(t, body, "Please include a valid email")
	require.Contains(t, body, "Please enter a password with 6 or more characters")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := newTestRouter(t, nil)
	registerAndToken(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/users", "", gin.H{
		"name": "Dev", "email": "ada@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "User already exists")
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t, nil)
	registerAndToken(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/auth", "", gin.H{
		"email": "ada@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "token")

	// Wrong password and unknown email share one body.
	for _, creds := range []gin.H{
		{"email": "ada@example.com", "password": "wrong-pass"},
		{"email": "ghost@example.com", "password": "secret1"},
	} {
		w = doJSON(t, r, http.MethodPost, "/api/auth", "", creds)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "Invalid Credentials")
	}
}

func TestProfile_UpsertAndMe(t *testing.T) {
	r := newTestRouter(t, nil)
	token := registerAndToken(t, r, "ada@example.com")

	// No profile yet.
	w := doJSON(t, r, http.MethodGet, "/api/profile/me", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "There is no profile for this user")

	// Missing required fields.
	w = doJSON(t, r, http.MethodPost, "/api/profile", token, gin.H{"bio": "hello"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Status is required")
	require.Contains(t, w.Body.String(), "Skills is required")

	w = doJSON(t, r, http.MethodPost, "/api/profile", token, gin.H{
		"status": "Developer", "skills": "Go, SQL", "twitter": "https://twitter.com/a",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/profile/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p entity.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Equal(t, []string{"Go", "SQL"}, p.Skills)
	require.Equal(t, "https://twitter.com/a", p.Social.Twitter)
	require.Empty(t, p.Social.Youtube)
}

func TestProfile_ExperienceRoundtrip(t *testing.T) {
	r := newTestRouter(t, nil)
	token := registerAndToken(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/profile", token, gin.H{"status": "Developer", "skills": "Go"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/profile/experience", token, gin.H{"title": "A"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Company is required")
	require.Contains(t, w.Body.String(), "From is required")

	w = doJSON(t, r, http.MethodPut, "/api/profile/experience", token, gin.H{
		"title": "A", "company": "Acme", "from": "2018-01-01",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPut, "/api/profile/experience", token, gin.H{
		"title": "B", "company": "Beta", "from": "2020-01-01",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var p entity.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Len(t, p.Experience, 2)
	require.Equal(t, "B", p.Experience[0].Title)

	w = doJSON(t, r, http.MethodDelete, "/api/profile/experience/does-not-exist", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Experience not found")

	w = doJSON(t, r, http.MethodDelete, "/api/profile/experience/"+p.Experience[0].ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Len(t, p.Experience, 1)
	require.Equal(t, "A", p.Experience[0].Title)
}

func TestProfile_EducationValidation(t *testing.T) {
	r := newTestRouter(t, nil)
	token := registerAndToken(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/profile", token, gin.H{"status": "Developer", "skills": "Go"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/profile/education", token, gin.H{"school": "MIT"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Degree is required")

	w = doJSON(t, r, http.MethodPut, "/api/profile/education", token, gin.H{
		"school": "MIT", "degree": "BSc", "fieldofstudy": "CS", "from": "2010-09-01",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var p entity.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Equal(t, "MIT", p.Education[0].School)
}

func TestProfile_PublicReads(t *testing.T) {
	r := newTestRouter(t, nil)
	token := registerAndToken(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/profile", token, gin.H{"status": "Developer", "skills": "Go"})
	require.Equal(t, http.StatusOK, w.Code)
	var p entity.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

	// Directory and by-owner reads need no token.
	w = doJSON(t, r, http.MethodGet, "/api/profile", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/profile/user/"+p.OwnerID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/profile/user/nobody", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Profile not found")
}

func TestProfile_DeleteCascade(t *testing.T) {
	r := newTestRouter(t, nil)
	token := registerAndToken(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/profile", token, gin.H{"status": "Developer", "skills": "Go"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "User deleted")

	// The still-valid token no longer maps to an identity.
	w = doJSON(t, r, http.MethodGet, "/api/auth", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Token is not valid")
}

func TestGithubRepos(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/users/ada/repos":
			require.Equal(t, "5", req.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(`[{"id":1,"name":"devconnector","stargazers_count":42}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	gh := github.NewClient(nil, quietLogger(), "", "", 0)
	gh.BaseURL = upstream.URL
	r := newTestRouter(t, gh)

	w := doJSON(t, r, http.MethodGet, "/api/profile/github/ada", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "devconnector")

	w = doJSON(t, r, http.MethodGet, "/api/profile/github/nobody", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "No Github profile found")
}
