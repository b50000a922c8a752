package models

import "time"

// Change-event actions, mirroring row-level feed semantics.
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// ChangeEvent is an append-only realtime feed row. Every mutation writes one
// in the same transaction, and the SSE endpoint tails them by id per org.
type ChangeEvent struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrgID     string `gorm:"size:32;not null;index"`
	Table     string `gorm:"column:table_name;size:32;not null"`
	Action    string `gorm:"size:8;not null"`
	RowID     string `gorm:"size:32;not null"`
	Payload   string `gorm:"type:mediumtext"`
	CreatedAt time.Time
}
