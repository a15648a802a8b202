package router

import (
	userapp "streamtube/internal/application"
	"streamtube/internal/container"
	repouser "streamtube/internal/domain/repository"
	pginfra "streamtube/internal/infrastructure/postgres"
	handlers "streamtube/internal/interface/http"
	"streamtube/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repouser.UserRepository
	Service *userapp.Service
	Handler *handlers.UserHandler
}

type VideoModuleDeps struct {
	Repo    repouser.VideoRepository
	Service *userapp.VideoService
	Handler *handlers.VideoHandler
}

func buildUserDeps(videos repouser.VideoRepository) UserModuleDeps {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := &userapp.Service{
		Repo:         repo,
		Videos:       videos,
		JWT:          container.GetJWT(),
		GCS:          container.GetGCS(),
		GCSBucket:    cfg.GCSBucket,
		Redis:        container.GetRedis(),
		Logger:       container.GetLogger(),
		ES:           container.GetES(),
		ESUsersIndex: cfg.ESUsersIndex,
		Pub:          container.GetEmailPub(),
		MailEnabled:  cfg.MailSendEnabled,
	}

	handler := handlers.NewUserHandler(
		service,
		container.GetJWT(),
		container.GetLogger(),
		cfg.CookieDomain,
		cfg.CookieSecure,
	)

	return UserModuleDeps{Repo: repo, Service: service, Handler: handler}
}

func buildVideoDeps(users repouser.UserRepository, videos repouser.VideoRepository) VideoModuleDeps {
	service := &userapp.VideoService{
		Videos: videos,
		Users:  users,
		Logger: container.GetLogger(),
		Pub:    container.GetViewPub(),
	}

	handler := handlers.NewVideoHandler(service, container.GetLogger())

	return VideoModuleDeps{Repo: videos, Service: service, Handler: handler}
}

// InitModules builds every module's dependency graph from the container
// singletons and registers the modules with the router registry. Called once
// during startup.
func InitModules(r *Registry) {
	videos := pginfra.NewVideoRepository(container.GetPGPool())

	userDeps := buildUserDeps(videos)
	videoDeps := buildVideoDeps(userDeps.Repo, videos)

	r.Add(modules.NewUserModule(userDeps.Handler, container.GetJWT()))
	r.Add(modules.NewVideoModule(videoDeps.Handler, container.GetJWT()))

	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
