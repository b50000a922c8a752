package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/auth"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/org"
)

type createOrgRequest struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	ManagerName  string `json:"manager_name"`
	ManagerPhone string `json:"manager_phone"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// handleCreateOrg onboards a new garage together with its founding manager
// and returns a session token for them.
func (s *api) handleCreateOrg(c *gin.Context) {
	var req createOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	managerID, err := org.GenerateProfileID()
	if err != nil {
		s.fail(c, err)
		return
	}

	o, p, err := org.Create(s.db, org.CreateOpts{
		Name:         req.Name,
		Address:      req.Address,
		ManagerID:    managerID,
		ManagerName:  req.ManagerName,
		ManagerPhone: req.ManagerPhone,
		PasswordHash: hash,
		Email:        req.Email,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := s.auth.GenerateToken(p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"organization": orgView(o),
		"profile":      profileView(p),
		"token":        token,
	})
}

// handleOrgByCode resolves a garage join code, for the signup screen.
func (s *api) handleOrgByCode(c *gin.Context) {
	o, err := org.GetByGarageCode(s.db, c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	// Public endpoint: only expose what the signup flow needs.
	c.JSON(http.StatusOK, gin.H{
		"id":          o.ID,
		"name":        o.Name,
		"garage_code": o.GarageCode,
	})
}

// handleOrgByManagerPhone finds a garage by its manager's phone.
func (s *api) handleOrgByManagerPhone(c *gin.Context) {
	o, err := org.GetByManagerPhone(s.db, c.Param("phone"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orgView(o))
}

type createInvitationRequest struct {
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// handleCreateInvitation issues a join token for a phone number.
func (s *api) handleCreateInvitation(c *gin.Context) {
	p := currentProfile(c)
	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	inv, err := org.Invite(s.db, p.OrgID, req.Phone, req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      inv.Token,
		"phone":      org.FormatPhone(inv.Phone),
		"role":       inv.Role,
		"expires_at": inv.ExpiresAt,
	})
}

type acceptInvitationRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleAcceptInvitation redeems an invitation token and logs the new
// member in.
func (s *api) handleAcceptInvitation(c *gin.Context) {
	var req acceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := org.GenerateProfileID()
	if err != nil {
		s.fail(c, err)
		return
	}

	p, err := org.Accept(s.db, req.Token, org.AcceptOpts{
		ProfileID:    id,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	token, err := s.auth.GenerateToken(p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profileView(p), "token": token})
}

// handleApproveMember approves a pending membership.
func (s *api) handleApproveMember(c *gin.Context) {
	s.setMembership(c, models.MembershipApproved)
}

// handleRejectMember rejects a pending membership.
func (s *api) handleRejectMember(c *gin.Context) {
	s.setMembership(c, models.MembershipRejected)
}

func (s *api) setMembership(c *gin.Context, status string) {
	p := currentProfile(c)
	member, err := org.SetMembership(s.db, p.OrgID, c.Param("id"), status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profileView(member))
}

func orgView(o *models.Organization) gin.H {
	return gin.H{
		"id":            o.ID,
		"name":          o.Name,
		"garage_code":   o.GarageCode,
		"manager_phone": org.FormatPhone(o.ManagerPhone),
		"address":       o.Address,
		"created_at":    o.CreatedAt,
	}
}
