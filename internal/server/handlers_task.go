package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/notify"
	"github.com/zulandar/pitstop/internal/task"
	"github.com/zulandar/pitstop/internal/vehicle"
)

// handleListTasks returns one page of tasks scoped to the caller.
func (s *api) handleListTasks(c *gin.Context) {
	p := currentProfile(c)

	var cursor *time.Time
	if raw := c.Query("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cursor must be RFC3339"})
			return
		}
		cursor = &t
	}

	var owned []uint
	if p.Role == models.RoleCustomer {
		ids, err := vehicle.OwnedIDs(s.db, p.OrgID, p.ID)
		if err != nil {
			s.fail(c, err)
			return
		}
		owned = ids
	}

	filters := task.ListFilters{Status: c.Query("status")}
	if c.Query("mine") == "true" {
		filters.Assignee = p.ID
	}

	page, err := task.List(s.db, task.ScopeFor(p, owned), filters, cursor)
	if err != nil {
		s.fail(c, err)
		return
	}

	items := make([]gin.H, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, s.taskView(p, &page.Items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "has_more": page.HasMore})
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	CustomerID  string `json:"customer_id"`
	VehicleID   *uint  `json:"vehicle_id"`
	Note        string `json:"note"`
}

// handleCreateTask creates a staff manual-entry task.
func (s *api) handleCreateTask(c *gin.Context) {
	p := currentProfile(c)
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	t, err := task.Create(s.db, task.CreateOpts{
		OrgID:       p.OrgID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CustomerID:  req.CustomerID,
		CreatedBy:   p.ID,
		VehicleID:   req.VehicleID,
		Intake: models.Intake{
			Kind:   models.IntakeManual,
			Manual: &models.ManualIntake{Note: req.Note},
		},
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.taskView(p, t))
}

type checkInRequest struct {
	Plate            string `json:"plate"`
	FaultDescription string `json:"fault_description"`
	Mileage          int    `json:"mileage"`
	PaymentMethod    string `json:"payment_method"`
}

// handleCheckIn files a customer drop-off as a WAITING_FOR_APPROVAL task
// keyed to the vehicle's plate.
func (s *api) handleCheckIn(c *gin.Context) {
	p := currentProfile(c)
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.FaultDescription == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fault description is required"})
		return
	}

	v, err := vehicle.GetByPlate(s.db, p.OrgID, req.Plate)
	if err != nil {
		s.fail(c, err)
		return
	}

	customerID := p.ID
	if p.Role != models.RoleCustomer && v.OwnerID != nil {
		customerID = *v.OwnerID
	}

	t, err := task.Create(s.db, task.CreateOpts{
		OrgID:      p.OrgID,
		Title:      fmt.Sprintf("קליטת רכב %s", vehicle.FormatPlate(v.Plate)),
		CustomerID: customerID,
		CreatedBy:  p.ID,
		VehicleID:  &v.ID,
		Intake: models.Intake{
			Kind: models.IntakeCheckIn,
			CheckIn: &models.CheckInIntake{
				FaultDescription: req.FaultDescription,
				Mileage:          req.Mileage,
				PaymentMethod:    req.PaymentMethod,
			},
		},
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.taskView(p, t))
}

// handleGetTask returns one task the caller may see.
func (s *api) handleGetTask(c *gin.Context) {
	p := currentProfile(c)
	t, err := task.GetInOrg(s.db, p.OrgID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if p.Role == models.RoleCustomer && !s.customerOwnsTask(p, t) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your task"})
		return
	}
	c.JSON(http.StatusOK, s.taskView(p, t))
}

// patchableStatuses are the status values PATCH may set directly. Approval,
// scheduling, completion and cancellation carry side effects (customer
// notifications, timestamps, manager gates) and only happen through their
// dedicated endpoints.
var patchableStatuses = map[string]bool{
	models.StatusApproved:         true,
	models.StatusInProgress:       true,
	models.StatusPaused:           true,
	models.StatusCustomerApproval: true,
}

// handlePatchTask applies a field patch; status changes go through the
// transition rules.
func (s *api) handlePatchTask(c *gin.Context) {
	p := currentProfile(c)
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Whitelist patchable fields; everything else is operation-specific.
	allowed := map[string]bool{"title": true, "description": true, "priority": true, "status": true}
	for k := range patch {
		if !allowed[k] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("field %q is not patchable", k)})
			return
		}
	}
	if raw, ok := patch["status"]; ok {
		status, _ := raw.(string)
		if !patchableStatuses[status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("status %q has a dedicated endpoint", status)})
			return
		}
	}

	if _, err := task.GetInOrg(s.db, p.OrgID, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	t, err := task.Update(s.db, c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.taskView(p, t))
}

// handleClaimTask assigns the caller to the task.
func (s *api) handleClaimTask(c *gin.Context) {
	p := currentProfile(c)
	t, err := task.Claim(s.db, c.Param("id"), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.courier != nil {
		s.courier.Send(c.Request.Context(), notify.Alert{
			Title:    "Work started",
			Body:     fmt.Sprintf("%s claimed %q", p.Name, t.Title),
			TaskID:   t.ID,
			Severity: "info",
		})
	}
	c.JSON(http.StatusOK, s.taskView(p, t))
}

// handleReleaseTask removes the caller from the task.
func (s *api) handleReleaseTask(c *gin.Context) {
	p := currentProfile(c)
	if _, err := task.GetInOrg(s.db, p.OrgID, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	t, err := task.Release(s.db, c.Param("id"), p.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.taskView(p, t))
}

type approveTaskRequest struct {
	SendNow    bool   `json:"send_now"`
	ReminderAt string `json:"reminder_at"` // RFC3339, only with send_now=false
}

// handleApproveTask approves a pending task into the queue or the schedule.
func (s *api) handleApproveTask(c *gin.Context) {
	p := currentProfile(c)
	var req approveTaskRequest
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

	if _, err := task.GetInOrg(s.db, p.OrgID, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	t, err := task.Approve(s.db, c.Param("id"), req.SendNow, reminderAt)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.taskView(p, t))
}

// handleCompleteTask marks the task completed.
func (s *api) handleCompleteTask(c *gin.Context) {
	p := currentProfile(c)
	if _, err := task.GetInOrg(s.db, p.OrgID, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	t, err := task.Complete(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.courier != nil {
		s.courier.Send(c.Request.Context(), notify.Alert{
			Title:    "Task completed",
			Body:     t.Title,
			TaskID:   t.ID,
			Severity: "success",
		})
	}
	c.JSON(http.StatusOK, s.taskView(p, t))
}

// handleCancelTask cancels (soft-deletes) the task.
func (s *api) handleCancelTask(c *gin.Context) {
	p := currentProfile(c)
	if _, err := task.GetInOrg(s.db, p.OrgID, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	t, err := task.Cancel(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.taskView(p, t))
}

// customerOwnsTask decides whether a customer may see a task: theirs, filed
// by them, or on one of their vehicles.
func (s *api) customerOwnsTask(p *models.Profile, t *models.Task) bool {
	if t.CustomerID == p.ID || t.CreatedBy == p.ID {
		return true
	}
	if t.Vehicle != nil && t.Vehicle.OwnerID != nil && *t.Vehicle.OwnerID == p.ID {
		return true
	}
	return false
}

// taskView serializes a task for the caller, masking the vehicle's
// immobilizer code unless the visibility predicate allows it.
func (s *api) taskView(p *models.Profile, t *models.Task) gin.H {
	view := gin.H{
		"id":           t.ID,
		"org_id":       t.OrgID,
		"title":        t.Title,
		"description":  t.Description,
		"status":       t.Status,
		"priority":     t.Priority,
		"assigned_to":  t.AssignedTo,
		"customer_id":  t.CustomerID,
		"created_by":   t.CreatedBy,
		"intake":       t.Intake,
		"reminder_at":  t.ReminderAt,
		"created_at":   t.CreatedAt,
		"updated_at":   t.UpdatedAt,
		"started_at":   t.StartedAt,
		"completed_at": t.CompletedAt,
	}
	if t.Vehicle != nil {
		view["vehicle"] = s.vehicleView(p, t.Vehicle, t)
	} else if t.VehicleID != nil {
		view["vehicle_id"] = *t.VehicleID
	}
	return view
}
