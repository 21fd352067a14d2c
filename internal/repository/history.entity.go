package repository

import (
	"time"

	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PackageHistoryEntity struct {
	ID        string    `db:"id"         gorm:"primaryKey;column:id;type:text"`
	PackageID string    `db:"package_id" gorm:"column:package_id;not null;index"`
	Status    string    `db:"status"     gorm:"column:status;not null"`
	Notes     string    `db:"notes"      gorm:"column:notes"`
	ChangedBy *string   `db:"changed_by" gorm:"column:changed_by"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (PackageHistoryEntity) TableName() string {
	return "package_history"
}

func (e *PackageHistoryEntity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func toHistoryEntity(h *model.PackageHistoryEntry) *PackageHistoryEntity {
	if h == nil {
		return nil
	}
	return &PackageHistoryEntity{
		ID:        h.ID,
		PackageID: h.PackageID,
		Status:    string(h.Status),
		Notes:     h.Notes,
		ChangedBy: h.ChangedBy,
		CreatedAt: h.CreatedAt,
	}
}

func toHistoryModel(e *PackageHistoryEntity) *model.PackageHistoryEntry {
	if e == nil {
		return nil
	}
	return &model.PackageHistoryEntry{
		ID:        e.ID,
		PackageID: e.PackageID,
		Status:    model.PackageStatus(e.Status),
		Notes:     e.Notes,
		ChangedBy: e.ChangedBy,
		CreatedAt: e.CreatedAt,
	}
}

func toHistoryModels(entities []*PackageHistoryEntity) []*model.PackageHistoryEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.PackageHistoryEntry, len(entities))
	for i, e := range entities {
		models[i] = toHistoryModel(e)
	}
	return models
}
