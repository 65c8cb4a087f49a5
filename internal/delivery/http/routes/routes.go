package routes

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/database"
	"github.com/Hemanthmaddila/AI-agent/internal/delivery/http/handler"
	"github.com/Hemanthmaddila/AI-agent/internal/delivery/http/middleware"
	"github.com/Hemanthmaddila/AI-agent/internal/pkg/jwt"
	"github.com/Hemanthmaddila/AI-agent/internal/repository"
	"github.com/Hemanthmaddila/AI-agent/internal/scraper"
	"github.com/Hemanthmaddila/AI-agent/internal/ws"
)

type Deps struct {
	Config config.Config
	Orch   *scraper.Orchestrator
	Repo   *repository.PostingRepository
	DB     database.DB
	Redis  redis.UniversalClient
	Hub    *ws.Hub
	Logger *log.Logger
}

func Register(app *fiber.App, deps Deps) {
	if app == nil {
		return
	}

	app.Use(middleware.NewErrorMiddleware().Middleware())
	app.Use(middleware.NewAccessLogMiddleware(deps.Logger).Middleware())

	handler.NewHealthHandler(deps.DB, deps.Redis).RegisterRoutes(app)

	if deps.Hub != nil {
		wsHandler := ws.NewHandler(deps.Hub, deps.Logger)
		app.Get("/ws/progress", wsHandler.HandleProgressWS)
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")

	// With no secret configured the API runs open, which is the normal
	// single-user local setup.
	if deps.Config.Auth.JWTSecret != "" {
		jwtSvc := jwt.NewHMACService(deps.Config.Auth.JWTSecret, deps.Config.Auth.TokenTTL)
		v1 = v1.Group("", middleware.NewAuthMiddleware(jwtSvc).Middleware())
	}

	handler.NewSearchHandler(deps.Orch, deps.Repo, deps.Logger).RegisterRoutes(v1)
	handler.NewSourcesHandler(deps.Orch).RegisterRoutes(v1)
	handler.NewPostingsHandler(deps.Repo).RegisterRoutes(v1)
}
