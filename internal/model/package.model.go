package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PackageStatus is the lifecycle state of a shipment.
type PackageStatus string

const (
	StatusPending   PackageStatus = "pending"
	StatusInTransit PackageStatus = "in_transit"
	StatusDelivered PackageStatus = "delivered"
	StatusFailed    PackageStatus = "failed"
)

func (s PackageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusDelivered, StatusFailed:
		return true
	}
	return false
}

const (
	PackageTypeStandard  = "standard"
	PackageTypeExpress   = "express"
	PackageTypeFragile   = "fragile"
	PackageTypeDocuments = "documents"
)

const (
	PriorityStandard = "standard"
	PriorityHigh     = "high"
	PriorityUrgent   = "urgent"
)

const MaxNotesLen = 200

// Package is the canonical record of a shipment.
type Package struct {
	ID                     string        `json:"id"`
	TrackingNumber         string        `json:"tracking_number"`
	Description            string        `json:"description"`
	Status                 PackageStatus `json:"status"`
	SenderFullName         string        `json:"sender_full_name"`
	SenderCINIT            string        `json:"sender_cinit,omitempty"`
	SenderPhone            string        `json:"sender_phone,omitempty"`
	RecipientFullName      string        `json:"recipient_full_name"`
	RecipientCINIT         string        `json:"recipient_cinit,omitempty"`
	RecipientPhone         string        `json:"recipient_phone,omitempty"`
	OfficeSenderAddress    string        `json:"office_sender_address"`
	OfficeRecipientAddress string        `json:"office_recipient_address"`
	Weight                 float64       `json:"weight"`
	Quantity               int           `json:"quantity"`
	PackageType            string        `json:"package_type"`
	Priority               string        `json:"priority"`
	IsFragile              bool          `json:"is_fragile"`
	DeclaredValue          *float64      `json:"declared_value,omitempty"`
	TotalCost              float64       `json:"total_cost"`
	IsPaid                 bool          `json:"is_paid"`
	DeliveryNotes          string        `json:"delivery_notes,omitempty"`
	DeliveredBy            *string       `json:"delivered_by,omitempty"`
	CreatedBy              string        `json:"created_by"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// FieldErrors collects per-field validation failures so a bad request can
// report every failing field at once instead of only the first.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// PackageCreateRequest is the input for creating a package. Numeric fields
// arrive as strings, the same way the web form submits them.
type PackageCreateRequest struct {
	Description            string `json:"description"`
	SenderFullName         string `json:"sender_full_name"`
	SenderCINIT            string `json:"sender_cinit"`
	SenderPhone            string `json:"sender_phone"`
	RecipientFullName      string `json:"recipient_full_name"`
	RecipientCINIT         string `json:"recipient_cinit"`
	RecipientPhone         string `json:"recipient_phone"`
	OfficeSenderAddress    string `json:"office_sender_address"`
	OfficeRecipientAddress string `json:"office_recipient_address"`
	Weight                 string `json:"weight"`
	Quantity               string `json:"quantity"`
	PackageType            string `json:"package_type"`
	Priority               string `json:"priority"`
	IsFragile              bool   `json:"is_fragile"`
	DeclaredValue          string `json:"declared_value"`
	TotalCost              string `json:"total_cost"`
	IsPaid                 bool   `json:"is_paid"`
	DeliveryNotes          string `json:"delivery_notes"`
}

// Validate checks every field and returns the full set of failures, or nil.
func (r PackageCreateRequest) Validate() FieldErrors {
	errs := FieldErrors{}

	requireNonEmpty(errs, "description", r.Description)
	requireNonEmpty(errs, "sender_full_name", r.SenderFullName)
	requireNonEmpty(errs, "recipient_full_name", r.RecipientFullName)
	requireNonEmpty(errs, "office_sender_address", r.OfficeSenderAddress)
	requireNonEmpty(errs, "office_recipient_address", r.OfficeRecipientAddress)

	if strings.TrimSpace(r.Weight) == "" {
		errs["weight"] = "weight is required"
	} else if v, err := strconv.ParseFloat(r.Weight, 64); err != nil || v <= 0 {
		errs["weight"] = "weight must be a positive number"
	}

	if r.Quantity != "" {
		if v, err := strconv.Atoi(r.Quantity); err != nil || v <= 0 {
			errs["quantity"] = "quantity must be a positive integer"
		}
	}

	if strings.TrimSpace(r.TotalCost) == "" {
		errs["total_cost"] = "total cost is required"
	} else if v, err := strconv.ParseFloat(r.TotalCost, 64); err != nil || v < 0 {
		errs["total_cost"] = "total cost must be a non-negative number"
	}

	if r.DeclaredValue != "" {
		if v, err := strconv.ParseFloat(r.DeclaredValue, 64); err != nil || v < 0 {
			errs["declared_value"] = "declared value must be a non-negative number"
		}
	}

	switch r.PackageType {
	case "", PackageTypeStandard, PackageTypeExpress, PackageTypeFragile, PackageTypeDocuments:
	default:
		errs["package_type"] = "unknown package type"
	}

	switch r.Priority {
	case "", PriorityStandard, PriorityHigh, PriorityUrgent:
	default:
		errs["priority"] = "unknown priority"
	}

	if len(r.DeliveryNotes) > MaxNotesLen {
		errs["delivery_notes"] = fmt.Sprintf("notes exceed %d characters", MaxNotesLen)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Package converts a validated request into a Package owned by createdBy.
// Call Validate first; conversion assumes the numeric fields parse.
func (r PackageCreateRequest) Package(createdBy string) *Package {
	weight, _ := strconv.ParseFloat(r.Weight, 64)
	totalCost, _ := strconv.ParseFloat(r.TotalCost, 64)

	quantity := 1
	if r.Quantity != "" {
		quantity, _ = strconv.Atoi(r.Quantity)
	}

	var declared *float64
	if r.DeclaredValue != "" {
		v, _ := strconv.ParseFloat(r.DeclaredValue, 64)
		declared = &v
	}

	pkgType := r.PackageType
	if pkgType == "" {
		pkgType = PackageTypeStandard
	}
	priority := r.Priority
	if priority == "" {
		priority = PriorityStandard
	}

	return &Package{
		Description:            strings.TrimSpace(r.Description),
		Status:                 StatusPending,
		SenderFullName:         strings.TrimSpace(r.SenderFullName),
		SenderCINIT:            r.SenderCINIT,
		SenderPhone:            r.SenderPhone,
		RecipientFullName:      strings.TrimSpace(r.RecipientFullName),
		RecipientCINIT:         r.RecipientCINIT,
		RecipientPhone:         r.RecipientPhone,
		OfficeSenderAddress:    strings.TrimSpace(r.OfficeSenderAddress),
		OfficeRecipientAddress: strings.TrimSpace(r.OfficeRecipientAddress),
		Weight:                 weight,
		Quantity:               quantity,
		PackageType:            pkgType,
		Priority:               priority,
		IsFragile:              r.IsFragile,
		DeclaredValue:          declared,
		TotalCost:              totalCost,
		IsPaid:                 r.IsPaid,
		DeliveryNotes:          r.DeliveryNotes,
		CreatedBy:              createdBy,
	}
}

func requireNonEmpty(errs FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = field + " is required"
	}
}

// StatusUpdateRequest is the input for a status transition.
type StatusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (r StatusUpdateRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if !PackageStatus(r.Status).Valid() {
		errs["status"] = "status must be one of pending, in_transit, delivered, failed"
	}
	if len(r.Notes) > MaxNotesLen {
		errs["notes"] = fmt.Sprintf("notes exceed %d characters", MaxNotesLen)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// PackageFilter controls List queries.
type PackageFilter struct {
	Status PackageStatus // empty means all
	Page   int           // 1-based
	Limit  int           // default 10, max 50
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// Normalize clamps page and limit into their allowed windows.
func (f PackageFilter) Normalize() PackageFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// Pagination is the page metadata returned alongside list results.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int64(0)
	if total > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
