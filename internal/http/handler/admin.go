package handler

import (
	"net/http"

	"climbx.app/pipeline/internal/scheduler"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes manual triggers for the scheduler jobs. Every route
// requires the admin API key.
type AdminHandler struct {
	scheduler *scheduler.Scheduler
}

func NewAdminHandler(sched *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{scheduler: sched}
}

// Short route names for the registered jobs.
var jobAliases = map[string]string{
	"drain":     "outbox-drain",
	"translate": "event-translate",
	"snapshot":  "ranking-snapshot",
}

func (h *AdminHandler) TriggerJob(c *gin.Context) {
	name := c.Param("job")
	if full, ok := jobAliases[name]; ok {
		name = full
	}

	found, err := h.scheduler.TriggerNow(c.Request.Context(), name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job", "job": name})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "job": name})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "job": name})
}
