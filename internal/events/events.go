package events

import "time"

const (
	TypePackageCreated = "package.created"
	TypeStatusChanged  = "package.status_changed"
)

// PackageEvent is the payload published to the stream whenever a package
// is created or its status changes. Consumers treat it as notification
// input only; the database row is the source of truth.
type PackageEvent struct {
	Type           string    `json:"type"`
	PackageID      string    `json:"package_id"`
	TrackingNumber string    `json:"tracking_number"`
	Status         string    `json:"status"`
	ChangedBy      string    `json:"changed_by,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
