package router

import (
	"github.com/oksasatya/devconnector/internal/application"
	"github.com/oksasatya/devconnector/internal/container"
	pginfra "github.com/oksasatya/devconnector/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/devconnector/internal/interface/http"
	"github.com/oksasatya/devconnector/internal/router/modules"
)

// InitModules builds the services from container singletons and registers
// every feature module. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	profileRepo := pginfra.NewProfileRepository(container.GetPGPool())

	userSvc := application.NewUserService(
		userRepo,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRabbitPub(),
		logger,
		cfg.MailSendEnabled,
	)
	profileSvc := application.NewProfileService(
		profileRepo,
		userRepo,
		logger,
		container.GetES(),
		cfg.ESProfilesIndex,
	)

	authHandler := handlers.NewAuthHandler(userSvc, logger)
	profileHandler := handlers.NewProfileHandler(profileSvc, container.GetGithub(), logger)

	r.Add(
		modules.NewAuthModule(authHandler, container.GetJWT()),
		modules.NewProfileModule(profileHandler, container.GetJWT()),
	)
}
