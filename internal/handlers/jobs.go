package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// JobsHandler reports asynchronous job status
type JobsHandler struct {
	jobs JobQueue
}

func NewJobsHandler(jobs JobQueue) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

func (h *JobsHandler) Get(c *fiber.Ctx) error {
	job, ok := h.jobs.GetJob(c.Params("id"))
	if !ok {
		return ErrNotFound
	}
	return c.JSON(job)
}
