package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/auth"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/org"
)

type loginRequest struct {
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	GarageCode string `json:"garage_code"` // optional, disambiguates multi-org users
}

// handleLogin exchanges phone + password for a session token.
func (s *api) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	phone, err := org.NormalizePhone(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	q := s.db.Where("phone = ?", phone)
	if req.GarageCode != "" {
		o, err := org.GetByGarageCode(s.db, req.GarageCode)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		q = q.Where("org_id = ?", o.ID)
	}

	var profiles []models.Profile
	if err := q.Find(&profiles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	for _, p := range profiles {
		if auth.CheckPassword(req.Password, p.PasswordHash) {
			token, err := s.auth.GenerateToken(&p)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token, "profile": profileView(&p)})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
}

type signupRequest struct {
	GarageCode string `json:"garage_code"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"` // defaults to CUSTOMER
}

// handleSignup registers a user against a garage's join code. Customers are
// approved immediately; staff and team joins stay PENDING until a manager
// approves the membership.
func (s *api) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	phone, err := org.NormalizePhone(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	membership := models.MembershipApproved
	switch role {
	case models.RoleCustomer:
	case models.RoleStaff, models.RoleTeam:
		membership = models.MembershipPending
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be CUSTOMER, STAFF or TEAM"})
		return
	}

	o, err := org.GetByGarageCode(s.db, req.GarageCode)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown garage code"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := org.GenerateProfileID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	var count int64
	if err := s.db.Model(&models.Profile{}).
		Where("org_id = ? AND phone = ?", o.ID, phone).Count(&count).Error; err == nil && count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "phone already registered at this garage"})
		return
	}

	p := models.Profile{
		ID:               id,
		OrgID:            o.ID,
		Role:             role,
		MembershipStatus: membership,
		Name:             req.Name,
		Phone:            phone,
		Email:            req.Email,
		PasswordHash:     hash,
	}
	if err := s.db.Create(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	resp := gin.H{"profile": profileView(&p)}
	if membership == models.MembershipApproved {
		token, err := s.auth.GenerateToken(&p)
		if err == nil {
			resp["token"] = token
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// profileView strips the password hash from API responses.
func profileView(p *models.Profile) gin.H {
	return gin.H{
		"id":                p.ID,
		"org_id":            p.OrgID,
		"role":              p.Role,
		"membership_status": p.MembershipStatus,
		"name":              p.Name,
		"phone":             org.FormatPhone(p.Phone),
		"email":             p.Email,
	}
}
