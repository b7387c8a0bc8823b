package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Holding store
	Store    StoreConfig
	Mongo    MongoConfig
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	AlphaVantage AlphaVantageConfig
	Gemini       GeminiConfig

	// Auth
	Auth AuthConfig

	// Decision engine
	RiskProfileFile string // 선택: YAML 리스크 프로파일 (env 값을 덮어씀)
	Risk            RiskConfig
	Cache           CacheConfig
	RateLimit       RateLimitConfig

	// HTTP
	CORSAllowedOrigins []string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string // 비어있으면 stdout만 사용

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// Store drivers
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// StoreConfig selects the holding store implementation
type StoreConfig struct {
	Driver string // mongo, postgres, memory
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URL            string
	Database       string
	Collection     string
	MinPoolSize    uint64
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// AlphaVantageConfig holds market data API configuration
type AlphaVantageConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int // 무료 티어: 분당 5회
	Timeout           time.Duration
}

// GeminiConfig holds text generation API configuration
type GeminiConfig struct {
	APIKey             string
	Model              string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string // 설정 시 HS256 서명 검증
	ProjectID string // 기대하는 issuer 프로젝트 (불일치 시 경고만)
}

// RiskConfig holds the risk engine limits (percent)
type RiskConfig struct {
	MaxPositionPct  float64
	MaxSectorPct    float64
	MaxRiskPerTrade float64
}

// CacheConfig holds process cache TTLs
type CacheConfig struct {
	PortfolioTTL time.Duration
	PriceTTL     time.Duration
}

// RateLimitConfig holds inbound request limits
type RateLimitConfig struct {
	EvaluatePerMinute int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		},

		Mongo: MongoConfig{
			URL:            getEnv("MONGO_URL", ""),
			Database:       getEnv("MONGO_DATABASE", "tradelens"),
			Collection:     getEnv("MONGO_COLLECTION", "trades"),
			MinPoolSize:    uint64(getEnvAsInt("MONGO_MIN_POOL_SIZE", 0)),
			MaxPoolSize:    uint64(getEnvAsInt("MONGO_MAX_POOL_SIZE", 20)),
			ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", "10s"),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		AlphaVantage: AlphaVantageConfig{
			APIKey:            getEnv("ALPHA_VANTAGE_API_KEY", ""),
			BaseURL:           getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			RequestsPerMinute: getEnvAsInt("ALPHA_VANTAGE_RPM", 5),
			Timeout:           getEnvAsDuration("ALPHA_VANTAGE_TIMEOUT", "10s"),
		},

		Gemini: GeminiConfig{
			APIKey:             getEnv("GEMINI_API_KEY", ""),
			Model:              getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout:            getEnvAsDuration("GEMINI_TIMEOUT", "15s"),
			BreakerMaxFailures: uint32(getEnvAsInt("GEMINI_BREAKER_MAX_FAILURES", 5)),
			BreakerOpenTimeout: getEnvAsDuration("GEMINI_BREAKER_OPEN_TIMEOUT", "30s"),
		},

		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			ProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		},

		RiskProfileFile: getEnv("RISK_PROFILE_FILE", ""),

		Risk: RiskConfig{
			MaxPositionPct:  getEnvAsFloat("RISK_MAX_POSITION_PCT", 20),
			MaxSectorPct:    getEnvAsFloat("RISK_MAX_SECTOR_PCT", 40),
			MaxRiskPerTrade: getEnvAsFloat("RISK_MAX_RISK_PER_TRADE", 2),
		},

		Cache: CacheConfig{
			PortfolioTTL: getEnvAsDuration("PORTFOLIO_CACHE_TTL", "5m"),
			PriceTTL:     getEnvAsDuration("PRICE_CACHE_TTL", "30s"),
		},

		RateLimit: RateLimitConfig{
			EvaluatePerMinute: getEnvAsInt("EVALUATE_RATE_LIMIT", 30),
		},

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Store.Driver {
	case StoreMongo:
		if c.Mongo.URL == "" {
			return fmt.Errorf("MONGO_URL is required when STORE_DRIVER=mongo")
		}
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreMemory:
		if c.Env == "production" {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: mongo, postgres, memory")
	}

	// 운영 환경에서는 서명 검증 필수
	if c.Env == "production" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required when ENV=production")
	}

	if c.Risk.MaxPositionPct <= 0 || c.Risk.MaxSectorPct <= 0 || c.Risk.MaxRiskPerTrade <= 0 {
		return fmt.Errorf("risk limits must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsSlice splits a comma separated value, dropping empty items
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
