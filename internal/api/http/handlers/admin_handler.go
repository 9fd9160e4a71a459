package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/sweeper"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AdminHandler exposes operational controls. All routes sit behind the
// ADMIN_HELPDESK role guard.
type AdminHandler struct {
	scheduler *sweeper.Scheduler
	jobs      map[string]sweeper.Job
}

// NewAdminHandler builds the handler over the registered sweep jobs.
func NewAdminHandler(scheduler *sweeper.Scheduler, jobs ...sweeper.Job) *AdminHandler {
	byName := make(map[string]sweeper.Job, len(jobs))
	for _, j := range jobs {
		byName[j.Name()] = j
	}
	return &AdminHandler{scheduler: scheduler, jobs: byName}
}

// ListSweeps returns the names of the triggerable sweep jobs.
func (h *AdminHandler) ListSweeps(c *fiber.Ctx) error {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	return c.JSON(fiber.Map{"sweeps": names})
}

// TriggerSweep runs a sweep job immediately, still under the job lock.
func (h *AdminHandler) TriggerSweep(c *fiber.Ctx) error {
	name := c.Params("name")
	job, ok := h.jobs[name]
	if !ok {
		return apperrors.NewNotFound("sweep", map[string]any{"name": name})
	}
	h.scheduler.RunNow(job)
	return c.JSON(fiber.Map{"status": "triggered", "sweep": name})
}
