package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ScanType is the kind of barcode scan a station can register.
type ScanType string

const (
	ScanPickup    ScanType = "PICKUP"
	ScanDeliver   ScanType = "DELIVER"
	ScanException ScanType = "EXCEPTION"
)

// ScanRequest represents a barcode scan registered at a station
type ScanRequest struct {
	PackageID string   `json:"package_id" binding:"required"`
	Scan      ScanType `json:"scan" binding:"required"`
	Location  string   `json:"location"`
	Notes     string   `json:"notes"`
}

// ScanResponse represents the outcome of forwarding a scan to the gateway
type ScanResponse struct {
	PackageID   string    `json:"package_id"`
	Scan        ScanType  `json:"scan"`
	Status      string    `json:"status"`
	Forwarded   bool      `json:"forwarded"`
	GatewayCode int       `json:"gateway_code,omitempty"`
	ErrorMsg    string    `json:"error_msg,omitempty"`
	StationID   string    `json:"station_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	StationID string    `json:"station_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanStation simulates a branch-office scan station that forwards
// package scans to the tracking gateway as status updates.
type ScanStation struct {
	gatewayURL string
	authToken  string
	minDelay   time.Duration
	maxDelay   time.Duration
	stationID  string
	client     *http.Client
	rng        *rand.Rand
}

func NewScanStation(gatewayURL, authToken string, minDelay, maxDelay time.Duration) *ScanStation {
	return &ScanStation{
		gatewayURL: gatewayURL,
		authToken:  authToken,
		minDelay:   minDelay,
		maxDelay:   maxDelay,
		stationID:  "SCAN_STATION_" + uuid.New().String()[:8],
		client:     &http.Client{Timeout: 10 * time.Second},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// statusFor maps a scan type onto the package status it implies.
func statusFor(scan ScanType) (string, bool) {
	switch scan {
	case ScanPickup:
		return "in_transit", true
	case ScanDeliver:
		return "delivered", true
	case ScanException:
		return "failed", true
	}
	return "", false
}

// forwardScan pushes the scan to the gateway as a status transition
func (s *ScanStation) forwardScan(req *ScanRequest) *ScanResponse {
	// Scanners on branch networks are slow, simulate the lag
	time.Sleep(s.randomDelay())

	response := &ScanResponse{
		PackageID:   req.PackageID,
		Scan:        req.Scan,
		StationID:   s.stationID,
		ProcessedAt: time.Now(),
	}

	status, ok := statusFor(req.Scan)
	if !ok {
		response.ErrorMsg = "unknown scan type"
		return response
	}
	response.Status = status

	notes := req.Notes
	if notes == "" && req.Location != "" {
		notes = fmt.Sprintf("Scanned %s at %s", req.Scan, req.Location)
	}

	body, _ := json.Marshal(map[string]string{
		"status": status,
		"notes":  notes,
	})

	url := fmt.Sprintf("%s/api/v1/packages/%s/status", s.gatewayURL, req.PackageID)
	httpReq, err := http.NewRequest(http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		response.ErrorMsg = err.Error()
		return response
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.authToken)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		response.ErrorMsg = err.Error()

		log.Warn().
			Str("package_id", req.PackageID).
			Str("scan", string(req.Scan)).
			Err(err).
			Msg("Failed to reach gateway")
		return response
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	response.GatewayCode = resp.StatusCode
	response.Forwarded = resp.StatusCode == http.StatusOK

	if response.Forwarded {
		log.Info().
			Str("package_id", req.PackageID).
			Str("scan", string(req.Scan)).
			Str("status", status).
			Msg("Scan forwarded to gateway")
	} else {
		log.Warn().
			Str("package_id", req.PackageID).
			Str("scan", string(req.Scan)).
			Int("code", resp.StatusCode).
			Msg("Gateway rejected scan")
	}

	return response
}

func (s *ScanStation) randomDelay() time.Duration {
	delta := s.maxDelay - s.minDelay
	if delta <= 0 {
		return s.minDelay
	}
	return s.minDelay + time.Duration(s.rng.Int63n(int64(delta)))
}

// Handler struct holds the scan station and routes
type Handler struct {
	station *ScanStation
}

func NewHandler(station *ScanStation) *Handler {
	return &Handler{station: station}
}

// Scan handles a single barcode scan
func (h *Handler) Scan(c *gin.Context) {
	var req ScanRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("package_id", req.PackageID).
		Str("scan", string(req.Scan)).
		Str("location", req.Location).
		Msg("Received scan")

	response := h.station.forwardScan(&req)

	statusCode := http.StatusOK
	if !response.Forwarded {
		statusCode = http.StatusBadGateway
	}

	c.JSON(statusCode, response)
}

// BatchScan handles a truckload of scans at once
func (h *Handler) BatchScan(c *gin.Context) {
	var req struct {
		Scans []ScanRequest `json:"scans" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	responses := make([]*ScanResponse, 0, len(req.Scans))
	for i := range req.Scans {
		responses = append(responses, h.station.forwardScan(&req.Scans[i]))
	}

	c.JSON(http.StatusOK, gin.H{"results": responses})
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		StationID: h.station.stationID,
		Timestamp: time.Now(),
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scan", handler.Scan)
		v1.POST("/scan/batch", handler.BatchScan)
		v1.GET("/health", handler.HealthCheck)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8082")
	gatewayURL := getEnv("GATEWAY_URL", "http://localhost:8080")
	authToken := getEnv("GATEWAY_TOKEN", "")
	minDelay := getEnvDuration("MIN_DELAY", 100*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 1*time.Second)

	log.Info().
		Str("port", port).
		Str("gateway", gatewayURL).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting scan station")

	station := NewScanStation(gatewayURL, authToken, minDelay, maxDelay)
	handler := NewHandler(station)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
