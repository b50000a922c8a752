package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/org"
	"github.com/zulandar/pitstop/internal/vehicle"
)

// handleListVehicles lists the caller's vehicles, or the whole org's for
// garage personnel.
func (s *api) handleListVehicles(c *gin.Context) {
	p := currentProfile(c)

	var vehicles []models.Vehicle
	var err error
	if p.Role == models.RoleCustomer {
		vehicles, err = vehicle.ListByOwner(s.db, p.OrgID, p.ID)
	} else {
		err = s.db.Where("org_id = ?", p.OrgID).Order("created_at ASC").Find(&vehicles).Error
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	items := make([]gin.H, 0, len(vehicles))
	for i := range vehicles {
		items = append(items, s.vehicleView(p, &vehicles[i], nil))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type createVehicleRequest struct {
	Plate           string  `json:"plate"`
	OwnerID         *string `json:"owner_id"`
	Model           string  `json:"model"`
	Year            int     `json:"year"`
	Color           string  `json:"color"`
	VIN             string  `json:"vin"`
	FuelType        string  `json:"fuel_type"`
	EngineModel     string  `json:"engine_model"`
	ImmobilizerCode string  `json:"immobilizer_code"`
}

// handleCreateVehicle registers a vehicle. Customers register for
// themselves; staff may set an owner.
func (s *api) handleCreateVehicle(c *gin.Context) {
	p := currentProfile(c)
	var req createVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	owner := req.OwnerID
	if p.Role == models.RoleCustomer {
		owner = &p.ID
	}

	v, err := vehicle.Create(s.db, vehicle.CreateOpts{
		OrgID:           p.OrgID,
		OwnerID:         owner,
		Plate:           req.Plate,
		Model:           req.Model,
		Year:            req.Year,
		Color:           req.Color,
		VIN:             req.VIN,
		FuelType:        req.FuelType,
		EngineModel:     req.EngineModel,
		ImmobilizerCode: req.ImmobilizerCode,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, s.vehicleView(p, v, nil))
}

// handleGetVehicle returns one vehicle. Customers only see their own.
func (s *api) handleGetVehicle(c *gin.Context) {
	p := currentProfile(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}
	v, err := vehicle.Get(s.db, p.OrgID, uint(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	if p.Role == models.RoleCustomer && (v.OwnerID == nil || *v.OwnerID != p.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your vehicle"})
		return
	}
	c.JSON(http.StatusOK, s.vehicleView(p, v, nil))
}

// handleVehiclesByPhone looks up a customer's vehicles by phone, for the
// front-desk check-in flow.
func (s *api) handleVehiclesByPhone(c *gin.Context) {
	p := currentProfile(c)
	phone, err := org.NormalizePhone(c.Param("phone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vehicles, err := vehicle.ListByOwnerPhone(s.db, p.OrgID, phone)
	if err != nil {
		s.fail(c, err)
		return
	}
	items := make([]gin.H, 0, len(vehicles))
	for i := range vehicles {
		items = append(items, s.vehicleView(p, &vehicles[i], nil))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// handleRegistryLookup proxies the government registry by plate.
func (s *api) handleRegistryLookup(c *gin.Context) {
	if s.registry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "registry lookups are disabled"})
		return
	}
	plate, err := vehicle.NormalizePlate(c.Param("plate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := s.registry.Lookup(c.Request.Context(), plate)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// vehicleView serializes a vehicle for the caller. The immobilizer code is
// included only when the visibility predicate allows it; t provides the
// assignment context when the vehicle is rendered inside a task.
func (s *api) vehicleView(p *models.Profile, v *models.Vehicle, t *models.Task) gin.H {
	view := gin.H{
		"id":           v.ID,
		"org_id":       v.OrgID,
		"owner_id":     v.OwnerID,
		"plate":        vehicle.FormatPlate(v.Plate),
		"model":        v.Model,
		"year":         v.Year,
		"color":        v.Color,
		"vin":          v.VIN,
		"fuel_type":    v.FuelType,
		"engine_model": v.EngineModel,
		"created_at":   v.CreatedAt,
	}
	if vehicle.CanSeeImmobilizer(p, v, t) {
		view["immobilizer_code"] = v.ImmobilizerCode
	}
	return view
}
