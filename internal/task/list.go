package task

import (
	"fmt"
	"time"

	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/gorm"
)

// Scope bounds a listing to what the caller may see. Staff see the whole
// org; customers see tasks referencing them or their vehicles. This is the
// authorization boundary, applied at the query, not in clients.
type Scope struct {
	OrgID      string
	CustomerID string // non-empty switches to customer scoping
	VehicleIDs []uint // vehicles owned by the customer
}

// ScopeFor maps a profile to its listing scope. Role variants are data, not
// separate listing implementations.
func ScopeFor(p *models.Profile, ownedVehicles []uint) Scope {
	if p.Role == models.RoleCustomer {
		return Scope{OrgID: p.OrgID, CustomerID: p.ID, VehicleIDs: ownedVehicles}
	}
	return Scope{OrgID: p.OrgID}
}

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	Status   string
	Assignee string
}

// Page is one page of tasks plus the has-more heuristic: a full page means a
// further page may exist.
type Page struct {
	Items   []models.Task
	HasMore bool
}

// List returns a page of tasks ordered by creation time descending, excluding
// cancelled rows. cursor, when non-nil, is the creation timestamp of the last
// item already loaded.
func List(db *gorm.DB, scope Scope, filters ListFilters, cursor *time.Time) (*Page, error) {
	q := db.Model(&models.Task{}).Where("org_id = ?", scope.OrgID).
		Where("status <> ?", models.StatusCancelled)

	if scope.CustomerID != "" {
		if len(scope.VehicleIDs) > 0 {
			q = q.Where("customer_id = ? OR created_by = ? OR vehicle_id IN ?",
				scope.CustomerID, scope.CustomerID, scope.VehicleIDs)
		} else {
			q = q.Where("customer_id = ? OR created_by = ?", scope.CustomerID, scope.CustomerID)
		}
	}

	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if cursor != nil {
		q = q.Where("created_at < ?", *cursor)
	}

	var tasks []models.Task
	if err := q.Order("created_at DESC").Limit(PageSize).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}

	// has-more must reflect the raw page; the assignee filter narrows the
	// page after the fact because the list lives in a JSON column.
	hasMore := len(tasks) == PageSize

	if filters.Assignee != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.AssignedTo.Contains(filters.Assignee) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	return &Page{Items: tasks, HasMore: hasMore}, nil
}
