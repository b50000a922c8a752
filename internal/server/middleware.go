package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/gorm"
)

const profileKey = "profile"

// requireAuth verifies the bearer token and loads the caller's profile. Only
// APPROVED members get through; everything downstream trusts the profile in
// the context.
func (s *api) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	claims, err := s.auth.VerifyToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	var p models.Profile
	if err := s.db.Where("id = ?", claims.ProfileID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "profile not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}
	if p.MembershipStatus != models.MembershipApproved {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "membership not approved"})
		return
	}

	c.Set(profileKey, &p)
	c.Next()
}

// requireManager gates manager-only actions.
func (s *api) requireManager(c *gin.Context) {
	p := currentProfile(c)
	if p == nil || !p.IsManager() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "manager role required"})
		return
	}
	c.Next()
}

// requireWorker gates actions reserved for garage personnel.
func (s *api) requireWorker(c *gin.Context) {
	p := currentProfile(c)
	if p == nil || !p.IsWorker() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff role required"})
		return
	}
	c.Next()
}

// currentProfile returns the authenticated profile set by requireAuth.
func currentProfile(c *gin.Context) *models.Profile {
	v, ok := c.Get(profileKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Profile)
	return p
}
