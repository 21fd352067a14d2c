package repository

import (
	"time"

	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PackageEntity struct {
	ID                     string                  `db:"id"                       gorm:"primaryKey;column:id;type:text"`
	TrackingNumber         string                  `db:"tracking_number"          gorm:"column:tracking_number;not null;uniqueIndex"`
	Description            string                  `db:"description"              gorm:"column:description;not null"`
	Status                 string                  `db:"status"                   gorm:"column:status;not null;default:pending;index"`
	SenderFullName         string                  `db:"sender_full_name"         gorm:"column:sender_full_name;not null"`
	SenderCINIT            string                  `db:"sender_cinit"             gorm:"column:sender_cinit"`
	SenderPhone            string                  `db:"sender_phone"             gorm:"column:sender_phone"`
	RecipientFullName      string                  `db:"recipient_full_name"      gorm:"column:recipient_full_name;not null"`
	RecipientCINIT         string                  `db:"recipient_cinit"          gorm:"column:recipient_cinit"`
	RecipientPhone         string                  `db:"recipient_phone"          gorm:"column:recipient_phone"`
	OfficeSenderAddress    string                  `db:"office_sender_address"    gorm:"column:office_sender_address;not null"`
	OfficeRecipientAddress string                  `db:"office_recipient_address" gorm:"column:office_recipient_address;not null"`
	Weight                 float64                 `db:"weight"                   gorm:"column:weight;not null"`
	Quantity               int                     `db:"quantity"                 gorm:"column:quantity;default:1"`
	PackageType            string                  `db:"package_type"             gorm:"column:package_type;not null;default:standard"`
	Priority               string                  `db:"priority"                 gorm:"column:priority;not null;default:standard"`
	IsFragile              bool                    `db:"is_fragile"               gorm:"column:is_fragile;not null;default:false"`
	DeclaredValue          *float64                `db:"declared_value"           gorm:"column:declared_value"`
	TotalCost              float64                 `db:"total_cost"               gorm:"column:total_cost;not null"`
	IsPaid                 bool                    `db:"is_paid"                  gorm:"column:is_paid;not null;default:false"`
	DeliveryNotes          string                  `db:"delivery_notes"           gorm:"column:delivery_notes"`
	DeliveredBy            *string                 `db:"delivered_by"             gorm:"column:delivered_by"`
	CreatedBy              string                  `db:"created_by"               gorm:"column:created_by;not null;index"`
	CreatedAt              time.Time               `db:"created_at"               gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time               `db:"updated_at"               gorm:"column:updated_at;autoUpdateTime"`
	History                []*PackageHistoryEntity `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
}

func (PackageEntity) TableName() string {
	return "packages"
}

func (e *PackageEntity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = string(model.StatusPending)
	}
	return nil
}

func toPackageEntity(p *model.Package) *PackageEntity {
	if p == nil {
		return nil
	}
	return &PackageEntity{
		ID:                     p.ID,
		TrackingNumber:         p.TrackingNumber,
		Description:            p.Description,
		Status:                 string(p.Status),
		SenderFullName:         p.SenderFullName,
		SenderCINIT:            p.SenderCINIT,
		SenderPhone:            p.SenderPhone,
		RecipientFullName:      p.RecipientFullName,
		RecipientCINIT:         p.RecipientCINIT,
		RecipientPhone:         p.RecipientPhone,
		OfficeSenderAddress:    p.OfficeSenderAddress,
		OfficeRecipientAddress: p.OfficeRecipientAddress,
		Weight:                 p.Weight,
		Quantity:               p.Quantity,
		PackageType:            p.PackageType,
		Priority:               p.Priority,
		IsFragile:              p.IsFragile,
		DeclaredValue:          p.DeclaredValue,
		TotalCost:              p.TotalCost,
		IsPaid:                 p.IsPaid,
		DeliveryNotes:          p.DeliveryNotes,
		DeliveredBy:            p.DeliveredBy,
		CreatedBy:              p.CreatedBy,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func toPackageModel(e *PackageEntity) *model.Package {
	if e == nil {
		return nil
	}
	return &model.Package{
		ID:                     e.ID,
		TrackingNumber:         e.TrackingNumber,
		Description:            e.Description,
		Status:                 model.PackageStatus(e.Status),
		SenderFullName:         e.SenderFullName,
		SenderCINIT:            e.SenderCINIT,
		SenderPhone:            e.SenderPhone,
		RecipientFullName:      e.RecipientFullName,
		RecipientCINIT:         e.RecipientCINIT,
		RecipientPhone:         e.RecipientPhone,
		OfficeSenderAddress:    e.OfficeSenderAddress,
		OfficeRecipientAddress: e.OfficeRecipientAddress,
		Weight:                 e.Weight,
		Quantity:               e.Quantity,
		PackageType:            e.PackageType,
		Priority:               e.Priority,
		IsFragile:              e.IsFragile,
		DeclaredValue:          e.DeclaredValue,
		TotalCost:              e.TotalCost,
		IsPaid:                 e.IsPaid,
		DeliveryNotes:          e.DeliveryNotes,
		DeliveredBy:            e.DeliveredBy,
		CreatedBy:              e.CreatedBy,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func toPackageModels(entities []*PackageEntity) []*model.Package {
	if entities == nil {
		return nil
	}
	models := make([]*model.Package, len(entities))
	for i, e := range entities {
		models[i] = toPackageModel(e)
	}
	return models
}
