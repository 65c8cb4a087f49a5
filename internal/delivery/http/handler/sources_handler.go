package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Hemanthmaddila/AI-agent/internal/delivery/http/dto"
	"github.com/Hemanthmaddila/AI-agent/internal/delivery/http/middleware"
	"github.com/Hemanthmaddila/AI-agent/internal/pkg/response"
	"github.com/Hemanthmaddila/AI-agent/internal/scraper"
)

type SourcesHandler struct {
	orch *scraper.Orchestrator
}

func NewSourcesHandler(orch *scraper.Orchestrator) *SourcesHandler {
	return &SourcesHandler{orch: orch}
}

func (h *SourcesHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/sources")
	grp.Get("/", h.HandleList)
	grp.Patch("/:name", h.HandleUpdate)
}

func (h *SourcesHandler) HandleList(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, "success", h.orch.Sources())
}

func (h *SourcesHandler) HandleUpdate(c fiber.Ctx) error {
	name := strings.ToLower(strings.TrimSpace(c.Params("name")))
	if name == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, nil)
	}

	var req dto.UpdateSourceRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if req.Enabled == nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "enabled is required", nil, nil)
	}

	known := false
	for _, s := range h.orch.Sources() {
		if s.Name == name {
			known = true
			break
		}
	}
	if !known {
		return middleware.NewAppError(fiber.StatusNotFound, "unknown source", nil, nil)
	}

	if *req.Enabled {
		h.orch.Enable(name)
	} else {
		h.orch.Disable(name)
	}

	for _, s := range h.orch.Sources() {
		if s.Name == name {
			return response.Success(c, fiber.StatusOK, "success", s)
		}
	}
	return response.Success(c, fiber.StatusOK, "success", nil)
}
