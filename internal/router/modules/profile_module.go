package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/devconnector/internal/container"
	handlers "github.com/oksasatya/devconnector/internal/interface/http"
	"github.com/oksasatya/devconnector/internal/interface/middleware"
	"github.com/oksasatya/devconnector/pkg/helpers"
)

// ProfileModule mounts the profile aggregate routes.
// Public: GET /api/profile, GET /api/profile/user/:user_id,
// GET /api/profile/search, GET /api/profile/github/:username
// Protected: everything that reads or writes the caller's own profile.
type ProfileModule struct {
	Handler *handlers.ProfileHandler
	JWT     *helpers.JWTManager
}

func NewProfileModule(h *handlers.ProfileHandler, jwt *helpers.JWTManager) *ProfileModule {
	return &ProfileModule{Handler: h, JWT: jwt}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	publicLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	// The github lookup fans out to an upstream API, so it gets its own budget.
	githubLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())

	p := rg.Group("/profile")
	p.GET("", publicLimiter, m.Handler.List)
	p.GET("/user/:user_id", publicLimiter, m.Handler.ByUser)
	p.GET("/search", publicLimiter, m.Handler.Search)
	p.GET("/github/:username", githubLimiter, m.Handler.GithubRepos)

	auth := p.Group("")
	auth.Use(middleware.Auth(m.JWT, container.GetLogger()))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/me", m.Handler.Me)
		auth.POST("", m.Handler.Upsert)
		auth.DELETE("", m.Handler.Delete)
		auth.PUT("/experience", m.Handler.AddExperience)
		auth.DELETE("/experience/:exp_id", m.Handler.RemoveExperience)
		auth.PUT("/education", m.Handler.AddEducation)
		auth.DELETE("/education/:edu_id", m.Handler.RemoveEducation)
	}
}
