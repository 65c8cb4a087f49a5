package app

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Hemanthmaddila/AI-agent/internal/delivery/http/routes"
	"github.com/Hemanthmaddila/AI-agent/internal/ws"
)

type App struct {
	Fiber *fiber.App
	Hub   *ws.Hub
}

// Bootstrap assembles the HTTP surface on top of an already-built container
// and connects the websocket hub to orchestrator progress events.
func Bootstrap(c *Container) (*App, error) {
	if c == nil {
		return nil, fmt.Errorf("nil container")
	}

	hub := ws.NewHub(c.Logger)
	go hub.Run()
	c.Orchestrator.SetNotifier(ws.NewScrapeNotifier(hub))

	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})
	routes.Register(f, routes.Deps{
		Config: c.Config,
		Orch:   c.Orchestrator,
		Repo:   c.Repo,
		DB:     c.DB,
		Redis:  c.Redis,
		Hub:    hub,
		Logger: c.Logger,
	})

	return &App{Fiber: f, Hub: hub}, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
