package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/appointment"
	"github.com/zulandar/pitstop/internal/org"
	"github.com/zulandar/pitstop/internal/proposal"
	"github.com/zulandar/pitstop/internal/task"
	"github.com/zulandar/pitstop/internal/vehicle"
)

// fail maps domain errors to HTTP statuses. Sentinels from the domain
// packages decide the class; everything unrecognized is a 500 with the
// cause logged.
func (s *api) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, vehicle.ErrNotFound),
		errors.Is(err, org.ErrNotFound),
		errors.Is(err, appointment.ErrNotFound),
		errors.Is(err, proposal.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrInvalidTransition),
		errors.Is(err, task.ErrNotClaimable),
		errors.Is(err, task.ErrNotAssigned),
		errors.Is(err, appointment.ErrNotPending),
		errors.Is(err, proposal.ErrWrongStatus),
		errors.Is(err, org.ErrInvitationUsed),
		errors.Is(err, org.ErrInvitationExpired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
