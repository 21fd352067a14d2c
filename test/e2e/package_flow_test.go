package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andescargo/tracking-gateway/internal/auth"
	"github.com/andescargo/tracking-gateway/internal/events"
	"github.com/andescargo/tracking-gateway/internal/handlers"
	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/andescargo/tracking-gateway/internal/repository"
	"github.com/andescargo/tracking-gateway/internal/services"
	"github.com/andescargo/tracking-gateway/pkg/pg"
	"github.com/andescargo/tracking-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testSecret = []byte("e2e-secret")

type TestEnvironment struct {
	DB             *pg.DB
	Redis          *miniredis.Miniredis
	RedisAdapter   redis.RedisAdapter
	Queue          *events.Queue
	PackageRepo    *repository.PackageRepository
	HistoryRepo    *repository.HistoryRepository
	StatsRepo      *repository.StatsRepository
	PackageService *services.PackageService
	StatsService   *services.StatsService
	PackageHandler *handlers.PackageHandler
	StatsHandler   *handlers.StatsHandler
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
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

	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	redisAdapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	q, err := events.NewQueue(redisAdapter, events.QueueConfig{
		Stream:            "test:packages:events",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      50 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	})
	require.NoError(t, err)

	packageRepo := repository.NewPackageRepository(pgDB)
	historyRepo := repository.NewHistoryRepository(pgDB)
	statsRepo := repository.NewStatsRepository(pgDB)

	packageService := services.NewPackageService(packageRepo, historyRepo, q, redisAdapter, time.Minute)
	statsService := services.NewStatsService(statsRepo)

	verifier := auth.NewVerifier(testSecret)
	packageHandler := handlers.NewPackageHandler(packageService, verifier)
	statsHandler := handlers.NewStatsHandler(statsService, verifier)

	return &TestEnvironment{
		DB:             pgDB,
		Redis:          mr,
		RedisAdapter:   redisAdapter,
		Queue:          q,
		PackageRepo:    packageRepo,
		HistoryRepo:    historyRepo,
		StatsRepo:      statsRepo,
		PackageService: packageService,
		StatsService:   statsService,
		PackageHandler: packageHandler,
		StatsHandler:   statsHandler,
	}
}

func (env *TestEnvironment) Cleanup() {
	if env.Queue != nil {
		_ = env.Queue.Stop(5 * time.Second)
	}
	time.Sleep(100 * time.Millisecond)
	if env.Redis != nil {
		env.Redis.Close()
	}
}

func (env *TestEnvironment) seedUser(t *testing.T, id, role string) {
	err := env.DB.Write(context.Background()).Create(&repository.UserEntity{
		ID:    id,
		Name:  id,
		Email: id + "@example.com",
		Role:  role,
	}).Error
	require.NoError(t, err)
}

func bearerToken(t *testing.T, userID, role string) string {
	token, err := auth.GenerateToken(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func newRequestCtx(method, uri string, body []byte, authorization string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&fasthttp.Request{}, nil, nil)
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	return ctx
}

func validCreateBody(t *testing.T) []byte {
	body, err := json.Marshal(model.PackageCreateRequest{
		Description:            "Box of books",
		SenderFullName:         "Maria Lopez",
		RecipientFullName:      "Carlos Quispe",
		OfficeSenderAddress:    "La Paz central office",
		OfficeRecipientAddress: "Cochabamba branch",
		Weight:                 "2.5",
		TotalCost:              "45",
	})
	require.NoError(t, err)
	return body
}

func TestE2E_PackageCreationFlow(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	env.seedUser(t, "user-1", "user")

	ctx := newRequestCtx("POST", "/api/v1/packages", validCreateBody(t), bearerToken(t, "user-1", "user"))
	env.PackageHandler.CreatePackage(ctx)

	require.Equal(t, 201, ctx.Response.StatusCode())

	var created model.Package
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Regexp(t, regexp.MustCompile(`^PKG-[0-9A-F]{8}$`), created.TrackingNumber)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, 2.5, created.Weight)
	assert.Equal(t, "user-1", created.CreatedBy)

	// initial history entry committed with the package
	history, err := env.HistoryRepo.ListByPackage(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.StatusPending, history[0].Status)
	assert.Equal(t, "Package created", history[0].Notes)

	// event published for the notifier
	n, err := env.Queue.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestE2E_UnauthenticatedCreateRejected(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := newRequestCtx("POST", "/api/v1/packages", validCreateBody(t), "")
	env.PackageHandler.CreatePackage(ctx)

	assert.Equal(t, 401, ctx.Response.StatusCode())

	var count int64
	env.DB.Read(context.Background()).Model(&repository.PackageEntity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestE2E_StatusTransitionFlow(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	env.seedUser(t, "user-1", "user")

	created, err := env.PackageService.Create(context.Background(), model.PackageCreateRequest{
		Description:            "Box of books",
		SenderFullName:         "Maria Lopez",
		RecipientFullName:      "Carlos Quispe",
		OfficeSenderAddress:    "La Paz central office",
		OfficeRecipientAddress: "Cochabamba branch",
		Weight:                 "2.5",
		TotalCost:              "45",
	}, &model.Session{UserID: "user-1", Role: "user"})
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"status": "in_transit"})
	ctx := newRequestCtx("PATCH", "/api/v1/packages/"+created.ID+"/status", body, bearerToken(t, "user-1", "user"))
	ctx.SetUserValue("id", created.ID)
	env.PackageHandler.UpdateStatus(ctx)

	require.Equal(t, 200, ctx.Response.StatusCode())

	var updated model.Package
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &updated))
	assert.Equal(t, model.StatusInTransit, updated.Status)

	history, err := env.HistoryRepo.ListByPackage(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusPending, history[0].Status)
	assert.Equal(t, model.StatusInTransit, history[1].Status)
	assert.Equal(t, "Status updated to in_transit", history[1].Notes)

	// both the creation and the transition reached the stream
	consumed := make(chan events.PackageEvent, 4)
	err = env.Queue.Consume(func(ctx context.Context, msg *events.Message) error {
		var ev events.PackageEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil
		}
		consumed <- ev
		return nil
	})
	require.NoError(t, err)

	types := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-consumed:
			types[ev.Type] = true
		case <-time.After(2 * time.Second):
			t.Fatal("events not consumed")
		}
	}
	assert.True(t, types[events.TypePackageCreated])
	assert.True(t, types[events.TypeStatusChanged])
}

func TestE2E_StrangerCannotTransition(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	env.seedUser(t, "user-1", "user")
	env.seedUser(t, "user-2", "user")

	created, err := env.PackageService.Create(context.Background(), model.PackageCreateRequest{
		Description:            "Box of books",
		SenderFullName:         "Maria Lopez",
		RecipientFullName:      "Carlos Quispe",
		OfficeSenderAddress:    "La Paz central office",
		OfficeRecipientAddress: "Cochabamba branch",
		Weight:                 "2.5",
		TotalCost:              "45",
	}, &model.Session{UserID: "user-1", Role: "user"})
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"status": "delivered"})
	ctx := newRequestCtx("PATCH", "/api/v1/packages/"+created.ID+"/status", body, bearerToken(t, "user-2", "user"))
	ctx.SetUserValue("id", created.ID)
	env.PackageHandler.UpdateStatus(ctx)

	assert.Equal(t, 403, ctx.Response.StatusCode())

	// admin can
	ctx = newRequestCtx("PATCH", "/api/v1/packages/"+created.ID+"/status", body, bearerToken(t, "admin-1", model.RoleAdmin))
	ctx.SetUserValue("id", created.ID)
	env.PackageHandler.UpdateStatus(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
}

func TestE2E_HistoryForMissingPackage(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := newRequestCtx("GET", "/api/v1/packages/missing-id/history", nil, bearerToken(t, "user-1", "user"))
	ctx.SetUserValue("id", "missing-id")
	env.PackageHandler.GetHistory(ctx)

	assert.Equal(t, 404, ctx.Response.StatusCode())
}

func TestE2E_ListPagination(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	env.seedUser(t, "user-1", "user")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		err := env.DB.Write(context.Background()).Create(&repository.PackageEntity{
			ID:                     fmt.Sprintf("pkg-%02d", i),
			TrackingNumber:         fmt.Sprintf("PKG-DELIV%03d", i),
			Description:            "Box of books",
			Status:                 string(model.StatusDelivered),
			SenderFullName:         "Maria Lopez",
			RecipientFullName:      "Carlos Quispe",
			OfficeSenderAddress:    "La Paz central office",
			OfficeRecipientAddress: "Cochabamba branch",
			Weight:                 2.5,
			Quantity:               1,
			PackageType:            model.PackageTypeStandard,
			Priority:               model.PriorityStandard,
			TotalCost:              45,
			CreatedBy:              "user-1",
			CreatedAt:              base.Add(time.Duration(i) * time.Minute),
		}).Error
		require.NoError(t, err)
	}

	ctx := newRequestCtx("GET", "/api/v1/packages?status=delivered&page=2&limit=10", nil, bearerToken(t, "user-1", "user"))
	env.PackageHandler.ListPackages(ctx)

	require.Equal(t, 200, ctx.Response.StatusCode())

	var response struct {
		Data       []*model.Package `json:"data"`
		Pagination model.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
	assert.Len(t, response.Data, 5)
	assert.Equal(t, 2, response.Pagination.Page)
	assert.Equal(t, int64(15), response.Pagination.Total)
	assert.Equal(t, int64(2), response.Pagination.TotalPages)
}

func TestE2E_TrackingLookupAndCache(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	env.seedUser(t, "user-1", "user")

	created, err := env.PackageService.Create(context.Background(), model.PackageCreateRequest{
		Description:            "Box of books",
		SenderFullName:         "Maria Lopez",
		RecipientFullName:      "Carlos Quispe",
		OfficeSenderAddress:    "La Paz central office",
		OfficeRecipientAddress: "Cochabamba branch",
		Weight:                 "2.5",
		TotalCost:              "45",
	}, &model.Session{UserID: "user-1", Role: "user"})
	require.NoError(t, err)

	// public endpoint, no auth header
	ctx := newRequestCtx("GET", "/api/v1/track/"+created.TrackingNumber, nil, "")
	ctx.SetUserValue("trackingNumber", created.TrackingNumber)
	env.PackageHandler.Track(ctx)

	require.Equal(t, 200, ctx.Response.StatusCode())

	var tracked model.PackageWithHistory
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &tracked))
	assert.Equal(t, created.TrackingNumber, tracked.Package.TrackingNumber)
	require.Len(t, tracked.History, 1)

	// the lookup left a cache entry behind
	assert.True(t, env.Redis.Exists("tracking:"+created.TrackingNumber))

	// transition invalidates it
	_, err = env.PackageService.UpdateStatus(context.Background(), created.ID,
		model.StatusUpdateRequest{Status: "in_transit"},
		&model.Session{UserID: "user-1", Role: "user"})
	require.NoError(t, err)
	assert.False(t, env.Redis.Exists("tracking:"+created.TrackingNumber))
}

func TestE2E_StatsFlow(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	env.seedUser(t, "user-1", "user")
	env.seedUser(t, "admin-1", model.RoleAdmin)

	old := time.Now().AddDate(0, 0, -30)
	seed := func(id string, status model.PackageStatus, cost float64, paid bool, createdAt time.Time) {
		err := env.DB.Write(context.Background()).Create(&repository.PackageEntity{
			ID:                     id,
			TrackingNumber:         "PKG-" + id,
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
			TotalCost:              cost,
			IsPaid:                 paid,
			CreatedBy:              "user-1",
			CreatedAt:              createdAt,
		}).Error
		require.NoError(t, err)
	}

	seed("stat-1", model.StatusDelivered, 100, true, old)
	seed("stat-2", model.StatusDelivered, 50, false, old)
	seed("stat-3", model.StatusPending, 25, false, old)
	seed("stat-4", model.StatusFailed, 10, false, old)

	t.Run("all time", func(t *testing.T) {
		ctx := newRequestCtx("GET", "/api/v1/stats", nil, bearerToken(t, "admin-1", model.RoleAdmin))
		env.StatsHandler.GetStats(ctx)

		require.Equal(t, 200, ctx.Response.StatusCode())

		var stats model.Stats
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &stats))
		assert.Equal(t, int64(4), stats.TotalPackages)
		assert.Equal(t, int64(2), stats.DeliveredPackages)
		assert.Equal(t, float64(185), stats.TotalRevenue)
		assert.Equal(t, float64(100), stats.PaidRevenue)
		assert.Equal(t, float64(50), stats.DeliveryRate)
	})

	t.Run("empty day window zeroes out", func(t *testing.T) {
		ctx := newRequestCtx("GET", "/api/v1/stats?period=day", nil, bearerToken(t, "admin-1", model.RoleAdmin))
		env.StatsHandler.GetStats(ctx)

		require.Equal(t, 200, ctx.Response.StatusCode())

		var stats model.Stats
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &stats))
		assert.Equal(t, int64(0), stats.TotalPackages)
		assert.Equal(t, float64(0), stats.TotalRevenue)
		assert.Equal(t, float64(0), stats.DeliveryRate)
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		ctx := newRequestCtx("GET", "/api/v1/stats", nil, bearerToken(t, "user-1", "user"))
		env.StatsHandler.GetStats(ctx)

		assert.Equal(t, 403, ctx.Response.StatusCode())
	})
}
