package handler

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Hemanthmaddila/AI-agent/internal/delivery/http/dto"
	"github.com/Hemanthmaddila/AI-agent/internal/delivery/http/middleware"
	"github.com/Hemanthmaddila/AI-agent/internal/pkg/response"
	"github.com/Hemanthmaddila/AI-agent/internal/repository"
	"github.com/Hemanthmaddila/AI-agent/internal/scraper"
)

type SearchHandler struct {
	orch   *scraper.Orchestrator
	repo   *repository.PostingRepository
	logger *log.Logger
}

// NewSearchHandler wires the orchestrator behind the search endpoint. repo
// may be nil when the server runs without a database.
func NewSearchHandler(orch *scraper.Orchestrator, repo *repository.PostingRepository, logger *log.Logger) *SearchHandler {
	return &SearchHandler{orch: orch, repo: repo, logger: logger}
}

func (h *SearchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/search", h.HandleSearch)
}

func (h *SearchHandler) HandleSearch(c fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	if strings.TrimSpace(req.Keywords) == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "keywords is required", nil, nil)
	}

	report := h.orch.Run(c.Context(), req.ToDomain())

	persisted := 0
	if h.repo != nil {
		n, err := h.repo.SaveAll(c.Context(), report.Postings)
		if err != nil && h.logger != nil {
			h.logger.Printf("[Search] persist postings: %v", err)
		}
		persisted = n
	}

	return response.Success(c, fiber.StatusOK, "success", dto.NewSearchResponse(report, persisted))
}
