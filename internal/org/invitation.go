package org

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/notify"
	"gorm.io/gorm"
)

// Invitation errors callers branch on.
var (
	ErrInvitationUsed    = errors.New("org: invitation already used or revoked")
	ErrInvitationExpired = errors.New("org: invitation expired")
)

// invitationTTL is how long an invitation stays redeemable.
const invitationTTL = 7 * 24 * time.Hour

// Invite creates a pending invitation for a phone number in a given role.
func Invite(db *gorm.DB, orgID, phone, role string) (*models.Invitation, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	switch role {
	case models.RoleDeputyManager, models.RoleStaff, models.RoleTeam:
	default:
		return nil, fmt.Errorf("org: cannot invite role %q", role)
	}

	inv := models.Invitation{
		OrgID:     orgID,
		Token:     uuid.NewString(),
		Phone:     normalized,
		Role:      role,
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(invitationTTL),
	}
	if err := db.Create(&inv).Error; err != nil {
		return nil, fmt.Errorf("org: create invitation: %w", err)
	}
	return &inv, nil
}

// AcceptOpts holds the joining user's details.
type AcceptOpts struct {
	ProfileID    string
	Name         string
	Email        string
	PasswordHash string
}

// Accept redeems an invitation token, creating an APPROVED profile in the
// invited role. This is the accept_invitation entry point.
func Accept(db *gorm.DB, token string, opts AcceptOpts) (*models.Profile, error) {
	var p models.Profile
	err := db.Transaction(func(tx *gorm.DB) error {
		var inv models.Invitation
		if err := tx.Where("token = ?", token).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: invitation token", ErrNotFound)
			}
			return fmt.Errorf("org: find invitation: %w", err)
		}
		if inv.Status != models.InvitationPending {
			return ErrInvitationUsed
		}
		if time.Now().After(inv.ExpiresAt) {
			return ErrInvitationExpired
		}

		p = models.Profile{
			ID:               opts.ProfileID,
			OrgID:            inv.OrgID,
			Role:             inv.Role,
			MembershipStatus: models.MembershipApproved,
			Name:             opts.Name,
			Phone:            inv.Phone,
			Email:            opts.Email,
			PasswordHash:     opts.PasswordHash,
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("org: create invited profile: %w", err)
		}
		if err := tx.Model(&models.Invitation{}).Where("id = ?", inv.ID).
			Update("status", models.InvitationAccepted).Error; err != nil {
			return fmt.Errorf("org: mark invitation accepted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetMembership approves or rejects a pending member and notifies them.
func SetMembership(db *gorm.DB, orgID, profileID, status string) (*models.Profile, error) {
	switch status {
	case models.MembershipApproved, models.MembershipRejected:
	default:
		return nil, fmt.Errorf("org: invalid membership status %q", status)
	}

	var p models.Profile
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND org_id = ?", profileID, orgID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: profile %s", ErrNotFound, profileID)
			}
			return fmt.Errorf("org: find profile %s: %w", profileID, err)
		}
		if err := tx.Model(&models.Profile{}).Where("id = ?", profileID).
			Update("membership_status", status).Error; err != nil {
			return fmt.Errorf("org: set membership %s: %w", profileID, err)
		}
		p.MembershipStatus = status

		title := "הצטרפות למוסך אושרה"
		if status == models.MembershipRejected {
			title = "הצטרפות למוסך נדחתה"
		}
		return notify.Record(tx, &models.Notification{
			RecipientID: p.ID,
			OrgID:       orgID,
			Type:        models.NotifyMembership,
			Title:       title,
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
