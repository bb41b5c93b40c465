// Package dbschema contains the GORM entities backing the domain aggregates.
package dbschema

import "time"

// BaseModel carries the surrogate key and timestamps shared by all entities.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
