package repository

import "time"

// UserEntity mirrors the table owned by the authentication collaborator.
// The gateway only reads it as a foreign-key target; it never writes here.
type UserEntity struct {
	ID        string    `db:"id"         gorm:"primaryKey;column:id;type:text"`
	Name      string    `db:"name"       gorm:"column:name;not null"`
	Email     string    `db:"email"      gorm:"column:email;not null;uniqueIndex"`
	Role      string    `db:"role"       gorm:"column:role"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (UserEntity) TableName() string {
	return "users"
}
