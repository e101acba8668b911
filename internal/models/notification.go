package models

// Well-known notification types. Components may introduce further types;
// the feed treats the value as opaque.
const (
	NotificationTypeDiscovery       = "discovery"
	NotificationTypeViewObject      = "view_object"
	NotificationTypeError           = "error"
	NotificationTypeApprovalRequest = "approval_requested"
	NotificationTypeApprovalGranted = "approval_granted"
)

// Notification is one entry in a user's append-only notification feed.
// Entries are never deleted by the core; the pending flag flips to false
// once the user has seen them.
type Notification struct {
	BaseModel

	UserID   string `gorm:"size:255;not null;index" json:"user_id"`
	Type     string `gorm:"size:64;not null" json:"type"`
	Subject  string `gorm:"size:512" json:"subject"`
	Message  string `gorm:"type:text" json:"message"`
	ClientID string `gorm:"size:64" json:"client_id,omitempty"`

	// TimestampMicros is the creation time in microseconds since epoch,
	// comparable across calls and stable under clock injection in tests.
	TimestampMicros int64 `gorm:"not null;index" json:"timestamp"`

	Pending bool `gorm:"default:true;index" json:"pending"`
}
