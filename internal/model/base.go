package model

import "time"

// Model is the column set shared by every table. Version counts updates and
// is hidden from list responses unless explicitly projected.
type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
	Version   uint      `gorm:"column:version;not null;default:0" json:"version,omitempty"`
}
