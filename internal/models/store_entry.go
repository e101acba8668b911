package models

import (
	"time"

	"gorm.io/datatypes"
)

// StoreEntry is one row of the durable approval store. Keys are hierarchical
// paths (approval/{kind}/{subject}/{requestor}/...); values are JSON records.
type StoreEntry struct {
	Key       string         `gorm:"primaryKey;size:512"`
	Value     datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
