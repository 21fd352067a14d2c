package fixtures

import (
	"github.com/andescargo/tracking-gateway/internal/model"
)

var (
	SessionUser1 = model.Session{
		UserID: "user-1",
		Role:   "user",
	}

	SessionUser2 = model.Session{
		UserID: "user-2",
		Role:   "user",
	}

	SessionAdmin = model.Session{
		UserID: "admin-1",
		Role:   model.RoleAdmin,
	}
)

func PackageCreateRequestValid() model.PackageCreateRequest {
	return model.PackageCreateRequest{
		Description:            "Box of books",
		SenderFullName:         "Maria Lopez",
		RecipientFullName:      "Carlos Quispe",
		OfficeSenderAddress:    "La Paz central office",
		OfficeRecipientAddress: "Cochabamba branch",
		Weight:                 "2.5",
		TotalCost:              "45",
	}
}

func PackageCreateRequestExpress() model.PackageCreateRequest {
	req := PackageCreateRequestValid()
	req.PackageType = model.PackageTypeExpress
	req.Priority = model.PriorityUrgent
	return req
}

func PackageCreateRequestPaid() model.PackageCreateRequest {
	req := PackageCreateRequestValid()
	req.IsPaid = true
	return req
}

func PackageCreateRequestEmpty() model.PackageCreateRequest {
	return model.PackageCreateRequest{}
}

func StatusUpdateRequest(status, notes string) model.StatusUpdateRequest {
	return model.StatusUpdateRequest{
		Status: status,
		Notes:  notes,
	}
}

func FilterByStatus(status model.PackageStatus, page, limit int) model.PackageFilter {
	return model.PackageFilter{
		Status: status,
		Page:   page,
		Limit:  limit,
	}
}

var KnownStatuses = []model.PackageStatus{
	model.StatusPending,
	model.StatusInTransit,
	model.StatusDelivered,
	model.StatusFailed,
}

var InvalidStatuses = []string{
	"",
	"shipped",
	"PENDING",
	"in-transit",
	"teleported",
}
