package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	models "quickref/internal/domain/models/catalog"
)

// Storage backends for category and checklist state.
const (
	BackendFile     = "file"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`

	// Storage locations
	DataDir      string `yaml:"data_dir"`
	PDFDir       string `yaml:"pdf_dir"`
	JPGDir       string `yaml:"jpg_dir"`
	StoreBackend string `yaml:"store_backend"`
	DatabaseURL  string `yaml:"database_url"`
	TablePrefix  string `yaml:"table_prefix"`
	WatchDataDir bool   `yaml:"watch_data_dir"`

	// Rendering
	Render        models.RenderConfig `yaml:"render"`
	RasterizerBin string              `yaml:"rasterizer_bin"`

	// Admin access (single shared credential)
	AdminPassword string        `yaml:"admin_password"`
	SecretKey     string        `yaml:"secret_key"`
	SessionTTL    time.Duration `yaml:"session_ttl"`

	// Live refresh
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	CORSOrigins string `yaml:"cors_origins"`
	LogDir      string `yaml:"log_dir"`
	LogMaxFiles int    `yaml:"log_max_files"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables (highest precedence).
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:         "8000",
		Environment:  "dev",
		DataDir:      "data",
		PDFDir:       "pdfs",
		JPGDir:       "static/jpgs",
		StoreBackend: BackendFile,
		WatchDataDir: true,
		Render: models.RenderConfig{
			DPI:      100,
			MaxWidth: 1600,
			Quality:  68,
		},
		RasterizerBin:     "pdftoppm",
		AdminPassword:     "admin",
		SecretKey:         "change-me",
		SessionTTL:        12 * time.Hour,
		HeartbeatInterval: 15 * time.Second,
		CORSOrigins:       "http://localhost:8000",
		LogMaxFiles:       10,
	}
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", getEnv("FLASK_RUN_PORT", c.Port))
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.PDFDir = getEnv("PDF_DIR", c.PDFDir)
	c.JPGDir = getEnv("JPG_DIR", c.JPGDir)
	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.TablePrefix = getTablePrefix(c.Environment, c.TablePrefix)
	c.WatchDataDir = getEnvBool("WATCH_DATA_DIR", c.WatchDataDir)

	c.Render.DPI = getEnvInt("PDF_DPI", c.Render.DPI)
	c.Render.MaxWidth = getEnvInt("MAX_WIDTH", c.Render.MaxWidth)
	c.Render.Quality = getEnvInt("JPEG_QUALITY", c.Render.Quality)
	c.RasterizerBin = getEnv("RASTERIZER_BIN", c.RasterizerBin)

	c.AdminPassword = getEnv("EQRF_PASSWORD", c.AdminPassword)
	c.SecretKey = getEnv("EQRF_SECRET_KEY", getEnv("SECRET_KEY", c.SecretKey))
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.HeartbeatInterval = getEnvDuration("HEARTBEAT_INTERVAL", c.HeartbeatInterval)

	c.CORSOrigins = getEnv("CORS_ORIGINS", c.CORSOrigins)
	c.LogDir = getEnv("LOG_DIR", c.LogDir)
	c.LogMaxFiles = getEnvInt("LOG_MAX_FILES", c.LogMaxFiles)
}

// Validate checks ranges and backend-specific requirements.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.PDFDir, validation.Required),
		validation.Field(&c.JPGDir, validation.Required),
		validation.Field(&c.StoreBackend,
			validation.Required,
			validation.In(BackendFile, BackendBadger, BackendPostgres),
		),
		validation.Field(&c.DatabaseURL,
			validation.When(c.StoreBackend == BackendPostgres, validation.Required),
		),
		validation.Field(&c.Render, validation.By(validateRender)),
		validation.Field(&c.AdminPassword, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.SessionTTL, validation.Min(time.Minute)),
		validation.Field(&c.HeartbeatInterval, validation.Min(100*time.Millisecond)),
	)
}

func validateRender(value interface{}) error {
	r, _ := value.(models.RenderConfig)
	return validation.ValidateStruct(&r,
		validation.Field(&r.DPI, validation.Required, validation.Min(1), validation.Max(MaxRenderDPI)),
		validation.Field(&r.MaxWidth, validation.Required, validation.Min(1)),
		validation.Field(&r.Quality, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// IsDev reports whether the server runs in the development environment.
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env, current string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}
	if current != "" {
		return current
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "True":
		return true
	case "0", "false", "False":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
