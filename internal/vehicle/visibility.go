package vehicle

import "github.com/zulandar/pitstop/internal/models"

// CanSeeImmobilizer decides whether a profile may see a vehicle's
// immobilizer code: managers always, the vehicle's owner always, and staff
// currently assigned to the task while it is not yet completed. This is a
// rendering contract for clients; the API applies it before serializing.
func CanSeeImmobilizer(p *models.Profile, v *models.Vehicle, t *models.Task) bool {
	if p == nil || v == nil {
		return false
	}
	if p.IsManager() {
		return true
	}
	if v.OwnerID != nil && *v.OwnerID == p.ID {
		return true
	}
	if t == nil {
		return false
	}
	if (p.Role == models.RoleStaff || p.Role == models.RoleTeam) &&
		t.AssignedTo.Contains(p.ID) &&
		t.Status != models.StatusCompleted {
		return true
	}
	return false
}
