package models

// Global notification severities, ordered ERROR > WARNING > INFO for display.
const (
	GlobalSeverityError   = "ERROR"
	GlobalSeverityWarning = "WARNING"
	GlobalSeverityInfo    = "INFO"
)

// GlobalNotification is a broadcast message visible to every user while the
// current time falls inside [show_from, show_from + duration).
type GlobalNotification struct {
	BaseModel

	Severity string `gorm:"size:16;not null;index" json:"severity"`
	Header   string `gorm:"size:255;not null" json:"header"`
	Content  string `gorm:"type:text" json:"content,omitempty"`
	Link     string `gorm:"size:512" json:"link,omitempty"`

	ShowFromMicros int64 `gorm:"not null;index" json:"show_from"`
	DurationMicros int64 `gorm:"not null" json:"duration"`
}

// SeverityRank maps a severity to its display precedence; higher sorts first.
func SeverityRank(severity string) int {
	switch severity {
	case GlobalSeverityError:
		return 3
	case GlobalSeverityWarning:
		return 2
	case GlobalSeverityInfo:
		return 1
	default:
		return 0
	}
}
