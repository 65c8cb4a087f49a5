package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/Hemanthmaddila/AI-agent/internal/delivery/http/middleware"
	"github.com/Hemanthmaddila/AI-agent/internal/pkg/response"
	"github.com/Hemanthmaddila/AI-agent/internal/repository"
)

type PostingsHandler struct {
	repo *repository.PostingRepository
}

func NewPostingsHandler(repo *repository.PostingRepository) *PostingsHandler {
	return &PostingsHandler{repo: repo}
}

func (h *PostingsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil || h.repo == nil {
		return
	}
	r.Get("/postings", h.HandleRecent)
}

func (h *PostingsHandler) HandleRecent(c fiber.Ctx) error {
	limit := 50
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}
		limit = v
	}

	postings, err := h.repo.Recent(c.Context(), c.Query("source"), limit)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, "success", postings)
}
