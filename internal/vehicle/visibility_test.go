package vehicle

import (
	"testing"

	"github.com/zulandar/pitstop/internal/models"
)

func TestCanSeeImmobilizer(t *testing.T) {
	ownerID := "u-owner"
	v := &models.Vehicle{ID: 1, OwnerID: &ownerID, ImmobilizerCode: "4711"}

	manager := &models.Profile{ID: "u-mgr", Role: models.RoleSuperManager}
	deputy := &models.Profile{ID: "u-dep", Role: models.RoleDeputyManager}
	owner := &models.Profile{ID: ownerID, Role: models.RoleCustomer}
	staff := &models.Profile{ID: "u-staff", Role: models.RoleStaff}
	stranger := &models.Profile{ID: "u-other", Role: models.RoleCustomer}

	assigned := &models.Task{
		Status:     models.StatusInProgress,
		AssignedTo: models.StringList{"u-staff"},
	}
	completed := &models.Task{
		Status:     models.StatusCompleted,
		AssignedTo: models.StringList{"u-staff"},
	}

	tests := []struct {
		name string
		p    *models.Profile
		t    *models.Task
		want bool
	}{
		{"super manager always", manager, nil, true},
		{"deputy manager always", deputy, nil, true},
		{"owner always", owner, nil, true},
		{"assigned staff on active task", staff, assigned, true},
		{"assigned staff after completion", staff, completed, false},
		{"staff without task context", staff, nil, false},
		{"unrelated customer", stranger, assigned, false},
		{"nil profile", nil, assigned, false},
	}
	for _, tt := range tests {
		if got := CanSeeImmobilizer(tt.p, v, tt.t); got != tt.want {
			t.Errorf("%s: CanSeeImmobilizer = %v, want %v", tt.name, got, tt.want)
		}
	}
}
