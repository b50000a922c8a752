package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/notify"
	"github.com/zulandar/pitstop/internal/proposal"
	"github.com/zulandar/pitstop/internal/task"
)

// handleListProposals lists proposals: the whole org's for staff, only those
// on the caller's tasks for customers.
func (s *api) handleListProposals(c *gin.Context) {
	p := currentProfile(c)

	var items []models.Proposal
	var err error
	if p.Role == models.RoleCustomer {
		items, err = proposal.ListForCustomer(s.db, p.OrgID, p.ID)
	} else {
		items, err = proposal.List(s.db, p.OrgID, c.Query("status"))
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	views := make([]gin.H, 0, len(items))
	for i := range items {
		views = append(views, proposalView(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

type createProposalRequest struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url"`
	AudioURL    string `json:"audio_url"`
}

// handleCreateProposal attaches an upsell proposal to a task.
func (s *api) handleCreateProposal(c *gin.Context) {
	p := currentProfile(c)
	var req createProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := task.GetInOrg(s.db, p.OrgID, req.TaskID); err != nil {
		s.fail(c, err)
		return
	}
	prop, err := proposal.Create(s.db, proposal.CreateOpts{
		TaskID:      req.TaskID,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		AudioURL:    req.AudioURL,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.courier != nil {
		s.courier.Send(c.Request.Context(), notify.Alert{
			Title:    "Proposal awaiting pricing",
			Body:     prop.Description,
			TaskID:   prop.TaskID,
			Severity: "warning",
		})
	}
	c.JSON(http.StatusCreated, proposalView(prop))
}

type priceProposalRequest struct {
	Price float64 `json:"price"`
}

// handlePriceProposal prices a proposal and hands it to the customer.
func (s *api) handlePriceProposal(c *gin.Context) {
	p := currentProfile(c)
	id, ok := s.proposalID(c)
	if !ok {
		return
	}
	var req priceProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}

	prop, err := proposal.SetPrice(s.db, p.OrgID, id, req.Price)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalView(prop))
}

type decideProposalRequest struct {
	Accept bool `json:"accept"`
}

// handleDecideProposal records the customer's accept/reject. Only the task's
// customer may decide.
func (s *api) handleDecideProposal(c *gin.Context) {
	p := currentProfile(c)
	id, ok := s.proposalID(c)
	if !ok {
		return
	}
	var req decideProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	prop, err := proposal.Get(s.db, p.OrgID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if p.Role == models.RoleCustomer {
		t, err := task.GetInOrg(s.db, p.OrgID, prop.TaskID)
		if err != nil {
			s.fail(c, err)
			return
		}
		if t.CustomerID != p.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your proposal"})
			return
		}
	}

	prop, err = proposal.Decide(s.db, p.OrgID, id, req.Accept)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalView(prop))
}

func (s *api) proposalID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return 0, false
	}
	return uint(id), true
}

func proposalView(p *models.Proposal) gin.H {
	return gin.H{
		"id":          p.ID,
		"task_id":     p.TaskID,
		"org_id":      p.OrgID,
		"description": p.Description,
		"price":       p.Price,
		"status":      p.Status,
		"photo_url":   p.PhotoURL,
		"audio_url":   p.AudioURL,
		"decided_at":  p.DecidedAt,
		"created_at":  p.CreatedAt,
	}
}
