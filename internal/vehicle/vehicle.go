// Package vehicle provides vehicle records, plate handling and the
// government registry lookup.
package vehicle

import (
	"errors"
	"fmt"

	"github.com/zulandar/pitstop/internal/feed"
	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no vehicle matches.
var ErrNotFound = errors.New("vehicle: not found")

// CreateOpts holds parameters for registering a vehicle.
type CreateOpts struct {
	OrgID           string
	OwnerID         *string
	Plate           string
	Model           string
	Year            int
	Color           string
	VIN             string
	FuelType        string
	EngineModel     string
	ImmobilizerCode string
}

// Create registers a vehicle. The plate is normalized and must be unique
// within the organization.
func Create(db *gorm.DB, opts CreateOpts) (*models.Vehicle, error) {
	if opts.OrgID == "" {
		return nil, fmt.Errorf("vehicle: org is required")
	}
	plate, err := NormalizePlate(opts.Plate)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.Vehicle{}).
		Where("org_id = ? AND plate = ?", opts.OrgID, plate).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("vehicle: check plate uniqueness: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("vehicle: plate %s already registered", FormatPlate(plate))
	}

	v := models.Vehicle{
		OrgID:           opts.OrgID,
		OwnerID:         opts.OwnerID,
		Plate:           plate,
		Model:           opts.Model,
		Year:            opts.Year,
		Color:           opts.Color,
		VIN:             opts.VIN,
		FuelType:        opts.FuelType,
		EngineModel:     opts.EngineModel,
		ImmobilizerCode: opts.ImmobilizerCode,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&v).Error; err != nil {
			return fmt.Errorf("vehicle: create: %w", err)
		}
		return feed.Emit(tx, v.OrgID, "vehicles", models.ActionInsert, fmt.Sprint(v.ID), &v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Get retrieves a vehicle by id within an org.
func Get(db *gorm.DB, orgID string, id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := db.Where("id = ? AND org_id = ?", id, orgID).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("vehicle: get %d: %w", id, err)
	}
	return &v, nil
}

// GetByPlate retrieves a vehicle by normalized plate within an org.
func GetByPlate(db *gorm.DB, orgID, plate string) (*models.Vehicle, error) {
	normalized, err := NormalizePlate(plate)
	if err != nil {
		return nil, err
	}
	var v models.Vehicle
	if err := db.Where("org_id = ? AND plate = ?", orgID, normalized).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, FormatPlate(normalized))
		}
		return nil, fmt.Errorf("vehicle: get by plate %s: %w", normalized, err)
	}
	return &v, nil
}

// ListByOwner returns the vehicles owned by a profile.
func ListByOwner(db *gorm.DB, orgID, ownerID string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := db.Where("org_id = ? AND owner_id = ?", orgID, ownerID).
		Order("created_at ASC").Find(&vehicles).Error
	if err != nil {
		return nil, fmt.Errorf("vehicle: list by owner %s: %w", ownerID, err)
	}
	return vehicles, nil
}

// OwnedIDs returns just the ids of a profile's vehicles, for task scoping.
func OwnedIDs(db *gorm.DB, orgID, ownerID string) ([]uint, error) {
	vehicles, err := ListByOwner(db, orgID, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// ListByOwnerPhone returns vehicles whose owner's normalized phone matches.
func ListByOwnerPhone(db *gorm.DB, orgID, phone string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := db.Joins("JOIN profiles ON profiles.id = vehicles.owner_id").
		Where("vehicles.org_id = ? AND profiles.phone = ?", orgID, phone).
		Find(&vehicles).Error
	if err != nil {
		return nil, fmt.Errorf("vehicle: list by phone: %w", err)
	}
	return vehicles, nil
}
