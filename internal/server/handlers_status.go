package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/task"
	"github.com/zulandar/pitstop/internal/vehicle"
)

// statusBuckets collapses the full status machine into the three coarse
// phases the public tracking page shows.
var statusBuckets = map[string]string{
	models.StatusWaitingApproval:  "WAITING",
	models.StatusScheduled:        "WAITING",
	models.StatusWaiting:          "WAITING",
	models.StatusApproved:         "IN_PROGRESS",
	models.StatusInProgress:       "IN_PROGRESS",
	models.StatusPaused:           "IN_PROGRESS",
	models.StatusCustomerApproval: "IN_PROGRESS",
	models.StatusCompleted:        "COMPLETED",
}

// handlePublicStatus serves the unauthenticated tracking page for one task.
// The task id is the only credential, so it exposes just the coarse phase
// and a vehicle summary, never codes, prices or personnel.
func (s *api) handlePublicStatus(c *gin.Context) {
	t, err := task.Get(s.db, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	bucket, ok := statusBuckets[t.Status]
	if !ok {
		// Cancelled tasks disappear from tracking.
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	view := gin.H{
		"id":         t.ID,
		"title":      t.Title,
		"status":     bucket,
		"created_at": t.CreatedAt,
	}
	if t.CompletedAt != nil {
		view["completed_at"] = t.CompletedAt
	}
	if t.Vehicle != nil {
		view["vehicle"] = gin.H{
			"plate": vehicle.FormatPlate(t.Vehicle.Plate),
			"model": t.Vehicle.Model,
			"color": t.Vehicle.Color,
		}
	}
	c.JSON(http.StatusOK, view)
}
