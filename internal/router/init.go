package router

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/config"
	"github.com/oksasatya/user-account-service/internal/application"
	pginfra "github.com/oksasatya/user-account-service/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/user-account-service/internal/interface/http"
	"github.com/oksasatya/user-account-service/internal/router/modules"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

// Deps carries the shared infrastructure built once in main. Every component
// receives its collaborators explicitly; nothing default-constructs its own.
type Deps struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	Pool   *pgxpool.Pool
	RDB    *redis.Client
	Pub    *helpers.RabbitPublisher
	Tokens *helpers.TokenManager
}

// InitModules builds the service graph and registers all feature modules with
// the router registry, in order. Called once during startup.
func InitModules(r *Registry, d Deps) {
	repo := pginfra.NewUserRepository(d.Pool)
	users := application.NewUserService(repo, d.Logger, d.Cfg.BcryptCost)
	auth := application.NewAuthService(users, d.Tokens, d.Logger)

	authHandler := handlers.NewAuthHandler(auth, users, d.RDB, d.Pub, d.Cfg, d.Logger)
	userHandler := handlers.NewUserHandler(users, d.Logger)

	r.Add(modules.NewHealthModule(d.Cfg.AppName))
	r.Add(modules.NewAuthModule(authHandler, d.Tokens))
	r.Add(modules.NewUserModule(userHandler, d.Tokens))
}
