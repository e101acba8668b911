package models

import "time"

// Client is a machine under management. Client identifiers are assigned by
// the fleet enrolment pipeline and arrive preformed (e.g. "C.0123456789abcdef").
type Client struct {
	ID        string `gorm:"primaryKey;size:64" json:"id"`
	Hostname  string `gorm:"size:255" json:"hostname"`
	OS        string `gorm:"size:64" json:"os"`
	LastSeen  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Hunt is a bulk task run across many clients at once.
type Hunt struct {
	ID          string `gorm:"primaryKey;size:64" json:"id"`
	Description string `gorm:"type:text" json:"description"`
	Creator     string `gorm:"size:255" json:"creator"`
	State       string `gorm:"size:32" json:"state"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CronJob is a scheduled job executed by the platform on a recurring basis.
type CronJob struct {
	ID        string `gorm:"primaryKey;size:64" json:"id"`
	Schedule  string `gorm:"size:64" json:"schedule"`
	Flow      string `gorm:"size:255" json:"flow"`
	Enabled   bool   `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
