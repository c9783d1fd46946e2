package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// History is the archive of finished analyses.
type History interface {
	GetAnalysis(ctx context.Context, id string) (*types.AnalysisResult, error)
	ListAnalyses(ctx context.Context, limit int) ([]*types.AnalysisResult, error)
}

type HistoryHandler struct {
	history History
}

func NewHistoryHandler(history History) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List returns the most recent analyses; ?limit= caps the count.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	analyses, err := h.history.ListAnalyses(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(analyses)
}

func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	analysis, err := h.history.GetAnalysis(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(analysis)
}
