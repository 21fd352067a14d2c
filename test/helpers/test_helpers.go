package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/andescargo/tracking-gateway/internal/repository"
	"github.com/andescargo/tracking-gateway/pkg/pg"
	"github.com/andescargo/tracking-gateway/pkg/redis"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.UserEntity{},
		&repository.PackageEntity{},
		&repository.PackageHistoryEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestUser(t *testing.T, db *pg.DB, id, name, role string) *repository.UserEntity {
	ctx := context.Background()
	user := &repository.UserEntity{
		ID:    id,
		Name:  name,
		Email: id + "@example.com",
		Role:  role,
	}
	err := db.Write(ctx).Create(user).Error
	require.NoError(t, err)
	return user
}

func CreateTestPackage(t *testing.T, db *pg.DB, trackingNumber, createdBy string, status model.PackageStatus) *repository.PackageEntity {
	ctx := context.Background()
	pkg := &repository.PackageEntity{
		ID:                     uuid.NewString(),
		TrackingNumber:         trackingNumber,
		Description:            "Box of books",
		Status:                 string(status),
		SenderFullName:         "Maria Lopez",
		RecipientFullName:      "Carlos Quispe",
		OfficeSenderAddress:    "La Paz central office",
		OfficeRecipientAddress: "Cochabamba branch",
		Weight:                 2.5,
		Quantity:               1,
		PackageType:            model.PackageTypeStandard,
		Priority:               model.PriorityStandard,
		TotalCost:              45,
		CreatedBy:              createdBy,
	}
	err := db.Write(ctx).Create(pkg).Error
	require.NoError(t, err)
	return pkg
}

func CreateTestHistoryEntry(t *testing.T, db *pg.DB, packageID string, status model.PackageStatus, notes string) *repository.PackageHistoryEntity {
	ctx := context.Background()
	entry := &repository.PackageHistoryEntity{
		ID:        uuid.NewString(),
		PackageID: packageID,
		Status:    string(status),
		Notes:     notes,
	}
	err := db.Write(ctx).Create(entry).Error
	require.NoError(t, err)
	return entry
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
