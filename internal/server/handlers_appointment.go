package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/appointment"
	"github.com/zulandar/pitstop/internal/models"
)

// handleListAppointments lists pending appointments. Staff see the org's
// queue; customers see their own requests regardless of status.
func (s *api) handleListAppointments(c *gin.Context) {
	p := currentProfile(c)

	var items []models.Appointment
	var err error
	if p.Role == models.RoleCustomer {
		err = s.db.Where("org_id = ? AND customer_id = ?", p.OrgID, p.ID).
			Order("slot_at ASC").Find(&items).Error
	} else {
		items, err = appointment.ListPending(s.db, p.OrgID)
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	views := make([]gin.H, 0, len(items))
	for i := range items {
		views = append(views, appointmentView(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

type requestAppointmentRequest struct {
	VehicleID   *uint  `json:"vehicle_id"`
	SlotAt      string `json:"slot_at"` // RFC3339
	ServiceType string `json:"service_type"`
	Note        string `json:"note"`
}

// handleRequestAppointment files a customer's slot request.
func (s *api) handleRequestAppointment(c *gin.Context) {
	p := currentProfile(c)
	var req requestAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	slot, err := time.Parse(time.RFC3339, req.SlotAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot_at must be RFC3339"})
		return
	}

	a, err := appointment.Request(s.db, appointment.RequestOpts{
		OrgID:       p.OrgID,
		CustomerID:  p.ID,
		VehicleID:   req.VehicleID,
		SlotAt:      slot,
		ServiceType: req.ServiceType,
		Note:        req.Note,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, appointmentView(a))
}

type approveAppointmentRequest struct {
	SendNow    bool   `json:"send_now"`
	ReminderAt string `json:"reminder_at"` // RFC3339
}

// handleApproveAppointment turns a pending appointment into a task.
func (s *api) handleApproveAppointment(c *gin.Context) {
	p := currentProfile(c)
	id, ok := s.appointmentID(c)
	if !ok {
		return
	}
	var req approveAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var reminderAt *time.Time
	if req.ReminderAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ReminderAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reminder_at must be RFC3339"})
			return
		}
		reminderAt = &parsed
	}

	t, err := appointment.Approve(s.db, p.OrgID, id, req.SendNow, reminderAt)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.taskView(p, t))
}

// handleRejectAppointment declines a pending appointment.
func (s *api) handleRejectAppointment(c *gin.Context) {
	p := currentProfile(c)
	id, ok := s.appointmentID(c)
	if !ok {
		return
	}
	a, err := appointment.Reject(s.db, p.OrgID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appointmentView(a))
}

type rescheduleAppointmentRequest struct {
	SlotAt string `json:"slot_at"` // RFC3339
}

// handleRescheduleAppointment moves a pending appointment to a new slot.
func (s *api) handleRescheduleAppointment(c *gin.Context) {
	p := currentProfile(c)
	id, ok := s.appointmentID(c)
	if !ok {
		return
	}
	var req rescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	slot, err := time.Parse(time.RFC3339, req.SlotAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot_at must be RFC3339"})
		return
	}

	a, err := appointment.Reschedule(s.db, p.OrgID, id, slot)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appointmentView(a))
}

func (s *api) appointmentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return 0, false
	}
	return uint(id), true
}

func appointmentView(a *models.Appointment) gin.H {
	return gin.H{
		"id":           a.ID,
		"org_id":       a.OrgID,
		"customer_id":  a.CustomerID,
		"vehicle_id":   a.VehicleID,
		"slot_at":      a.SlotAt,
		"service_type": a.ServiceType,
		"note":         a.Note,
		"status":       a.Status,
		"task_id":      a.TaskID,
		"created_at":   a.CreatedAt,
	}
}
