package model

import "time"

// PackageHistoryEntry is one row in a shipment's audit trail. Entries are
// append-only: one at creation, one per status transition.
type PackageHistoryEntry struct {
	ID        string        `json:"id"`
	PackageID string        `json:"package_id"`
	Status    PackageStatus `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	ChangedBy *string       `json:"changed_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// PackageWithHistory is the public tracking view: the package plus its
// timeline ordered oldest first.
type PackageWithHistory struct {
	Package *Package               `json:"package"`
	History []*PackageHistoryEntry `json:"history"`
}
