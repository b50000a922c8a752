// Package org provides organization (tenant) onboarding and membership.
package org

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no organization matches.
var ErrNotFound = errors.New("org: not found")

// garageCodeAlphabet excludes easily-confused characters (0/O, 1/I).
const garageCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// CreateOpts holds parameters for creating an organization together with its
// founding SUPER_MANAGER profile.
type CreateOpts struct {
	Name         string
	Address      string
	ManagerID    string
	ManagerName  string
	ManagerPhone string
	PasswordHash string
	Email        string
}

// GenerateID creates a unique org ID in g-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("org: generate ID: %w", err)
	}
	return "g-" + fmt.Sprintf("%x", b)[:5], nil
}

// GenerateProfileID creates a unique profile ID in u-xxxxx format.
func GenerateProfileID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("org: generate profile ID: %w", err)
	}
	return "u-" + fmt.Sprintf("%x", b)[:5], nil
}

// GenerateGarageCode creates a 6-character shareable join code. Short enough
// to read over the phone, and QR-encodable.
func GenerateGarageCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("org: generate garage code: %w", err)
	}
	code := make([]byte, 6)
	for i, v := range b {
		code[i] = garageCodeAlphabet[int(v)%len(garageCodeAlphabet)]
	}
	return string(code), nil
}

// Create creates an organization and its founding manager profile in one
// transaction. This is the create_organization entry point.
func Create(db *gorm.DB, opts CreateOpts) (*models.Organization, *models.Profile, error) {
	if opts.Name == "" {
		return nil, nil, fmt.Errorf("org: name is required")
	}
	phone, err := NormalizePhone(opts.ManagerPhone)
	if err != nil {
		return nil, nil, err
	}

	id, err := GenerateID()
	if err != nil {
		return nil, nil, err
	}
	code, err := generateUniqueGarageCode(db)
	if err != nil {
		return nil, nil, err
	}

	o := models.Organization{
		ID:           id,
		Name:         opts.Name,
		GarageCode:   code,
		ManagerPhone: phone,
		Address:      opts.Address,
	}
	p := models.Profile{
		ID:               opts.ManagerID,
		OrgID:            id,
		Role:             models.RoleSuperManager,
		MembershipStatus: models.MembershipApproved,
		Name:             opts.ManagerName,
		Phone:            phone,
		Email:            opts.Email,
		PasswordHash:     opts.PasswordHash,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&o).Error; err != nil {
			return fmt.Errorf("org: create: %w", err)
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("org: create founding manager: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &o, &p, nil
}

// GetByGarageCode finds an organization by its join code.
func GetByGarageCode(db *gorm.DB, code string) (*models.Organization, error) {
	var o models.Organization
	if err := db.Where("garage_code = ?", code).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: garage code %s", ErrNotFound, code)
		}
		return nil, fmt.Errorf("org: get by garage code: %w", err)
	}
	return &o, nil
}

// GetByManagerPhone finds an organization by its manager's normalized phone.
// This is the get_org_by_manager_phone entry point.
func GetByManagerPhone(db *gorm.DB, phone string) (*models.Organization, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	var o models.Organization
	if err := db.Where("manager_phone = ?", normalized).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: manager phone %s", ErrNotFound, normalized)
		}
		return nil, fmt.Errorf("org: get by manager phone: %w", err)
	}
	return &o, nil
}

// generateUniqueGarageCode generates a code and retries once on collision.
func generateUniqueGarageCode(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		code, err := GenerateGarageCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Organization{}).Where("garage_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("org: check garage code uniqueness: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("org: failed to generate unique garage code after retries")
}
