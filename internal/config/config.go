package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	GRPCPort    int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// NATS (frame reports)
	// Default: nats://localhost:4222 (works with Docker Compose setup)
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	ReportsSubject     string

	// Report history (SQLite, empty disables) and websocket feed
	ReportsDB          string
	LiveReportsEnabled bool

	// Person detector (YOLOv3 trained on COCO)
	ModelPath   string
	PersonLabel string
	MinConf     float64
	NMSThresh   float64
	UseGPU      bool

	// Distancing
	MinDistance    float64 // pixels between centroids
	FrameWidth     int     // frames are resized to this width before detection, 0 keeps original size
	OverlayOpacity float64

	// Uploads
	MaxUploadSize int64 // bytes
	MaxJSONSize   int64 // bytes, JSON request bodies
	MaxDetections int   // per evaluate/annotate request

	// Live MJPEG preview of annotated frames
	PreviewEnabled bool

	// Background video sources started at boot, "id=url,id=url"
	Sources string

	// Swagger Configuration
	SwaggerHost string
	SwaggerPort int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "worker-1"),
		Port:        getEnvInt("PORT", 8000),
		GRPCPort:    getEnvInt("GRPC_PORT", 50051),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		ReportsSubject:     getEnv("REPORTS_SUBJECT", "distancing.reports"),

		ReportsDB:          getEnv("REPORTS_DB", ""),
		LiveReportsEnabled: getEnvBool("LIVE_REPORTS_ENABLED", true),

		// Person detector
		ModelPath:   getEnv("MODEL_PATH", "yolo-coco"),
		PersonLabel: getEnv("PERSON_LABEL", "person"),
		MinConf:     getEnvFloat("MIN_CONF", 0.3),
		NMSThresh:   getEnvFloat("NMS_THRESH", 0.3),
		UseGPU:      getEnvBool("USE_GPU", false),

		// Distancing
		MinDistance:    getEnvFloat("MIN_DISTANCE", 50),
		FrameWidth:     getEnvInt("FRAME_WIDTH", 700),
		OverlayOpacity: getEnvFloat("OVERLAY_OPACITY", 0.5),

		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_SIZE", 20*1024*1024)), // 20MB
		MaxJSONSize:   int64(getEnvInt("MAX_JSON_SIZE", 1024*1024)),      // 1MB
		MaxDetections: getEnvInt("MAX_DETECTIONS", 1000),

		PreviewEnabled: getEnvBool("PREVIEW_ENABLED", true),
		Sources:        getEnv("SOURCES", ""),

		// Swagger Configuration
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost"),
		SwaggerPort: getEnvInt("SWAGGER_PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// Validate rejects settings the distancing core cannot work with
func (c *Config) Validate() error {
	// negated comparisons so NaN is rejected too
	if !(c.MinDistance > 0) || math.IsInf(c.MinDistance, 1) {
		return fmt.Errorf("MIN_DISTANCE must be positive and finite, got %v", c.MinDistance)
	}
	if !(c.OverlayOpacity >= 0 && c.OverlayOpacity <= 1) {
		return fmt.Errorf("OVERLAY_OPACITY must be within [0,1], got %v", c.OverlayOpacity)
	}
	if !(c.MinConf >= 0 && c.MinConf <= 1) {
		return fmt.Errorf("MIN_CONF must be within [0,1], got %v", c.MinConf)
	}
	if c.FrameWidth < 0 {
		return fmt.Errorf("FRAME_WIDTH must not be negative, got %d", c.FrameWidth)
	}
	if c.MaxDetections < 0 {
		return fmt.Errorf("MAX_DETECTIONS must not be negative, got %d", c.MaxDetections)
	}
	return nil
}

// LabelsPath returns the COCO class names file inside ModelPath
func (c *Config) LabelsPath() string {
	return filepath.Join(c.ModelPath, "coco.names")
}

// WeightsPath returns the Darknet weights file inside ModelPath
func (c *Config) WeightsPath() string {
	return filepath.Join(c.ModelPath, "yolov3.weights")
}

// NetConfigPath returns the Darknet network definition inside ModelPath
func (c *Config) NetConfigPath() string {
	return filepath.Join(c.ModelPath, "yolov3.cfg")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	// If running in Docker, use service name; otherwise use localhost
	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
