package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data must be provided via the config file or the environment; there are no in-code defaults for secrets.
type AppConfig struct {
	AppPort string
	GinMode string
	GinPath string

	// Session tokens
	JWTSecret     string
	TokenTTLHours int

	// MySQL
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis for response caching
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// Logging
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	RateLimitPerMinute int
	AllowedOrigins     []string

	// Post listing bounds
	ListDefaultLimit int
	ListMaxLimit     int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func loadJSONConfig(path string, out *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw struct {
		AppPort            string   `json:"app_port"`
		GinMode            string   `json:"gin_mode"`
		GinPath            string   `json:"gin_path"`
		JWTSecret          string   `json:"jwt_secret"`
		TokenTTLHours      int      `json:"token_ttl_hours"`
		DatabaseURI        string   `json:"database_uri"`
		DBHost             string   `json:"db_host"`
		DBPort             string   `json:"db_port"`
		DBUser             string   `json:"db_user"`
		DBPassword         string   `json:"db_password"`
		DBName             string   `json:"db_name"`
		RedisHost          string   `json:"redis_host"`
		RedisPort          int      `json:"redis_port"`
		RedisDB            int      `json:"redis_db"`
		RedisPassword      string   `json:"redis_password"`
		LogLevel           string   `json:"log_level"`
		LogPath            string   `json:"log_path"`
		LogMaxSizeMB       int      `json:"log_max_size_mb"`
		LogMaxBackups      int      `json:"log_max_backups"`
		LogMaxAgeDays      int      `json:"log_max_age_days"`
		LogCompress        bool     `json:"log_compress"`
		RateLimitPerMinute int      `json:"rate_limit_per_minute"`
		AllowedOrigins     []string `json:"allowed_origins"`
		ListDefaultLimit   int      `json:"list_default_limit"`
		ListMaxLimit       int      `json:"list_max_limit"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out.AppPort = raw.AppPort
	out.GinMode = raw.GinMode
	out.GinPath = raw.GinPath
	out.JWTSecret = raw.JWTSecret
	out.TokenTTLHours = raw.TokenTTLHours
	out.DatabaseURI = raw.DatabaseURI
	out.DBHost = raw.DBHost
	out.DBPort = raw.DBPort
	out.DBUser = raw.DBUser
	out.DBPassword = raw.DBPassword
	out.DBName = raw.DBName
	out.RedisHost = raw.RedisHost
	out.RedisPort = raw.RedisPort
	out.RedisDB = raw.RedisDB
	out.RedisPassword = raw.RedisPassword
	out.LogLevel = raw.LogLevel
	out.LogPath = raw.LogPath
	out.LogMaxSizeMB = raw.LogMaxSizeMB
	out.LogMaxBackups = raw.LogMaxBackups
	out.LogMaxAgeDays = raw.LogMaxAgeDays
	out.LogCompress = raw.LogCompress
	out.RateLimitPerMinute = raw.RateLimitPerMinute
	out.AllowedOrigins = raw.AllowedOrigins
	out.ListDefaultLimit = raw.ListDefaultLimit
	out.ListMaxLimit = raw.ListMaxLimit
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 24
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "inkpost"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.ListDefaultLimit == 0 {
		c.ListDefaultLimit = 20
	}
	if c.ListMaxLimit == 0 {
		c.ListMaxLimit = 100
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("TOKEN_TTL_HOURS", ""); v != "" {
		c.TokenTTLHours = mustParseInt(v)
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = strings.EqualFold(v, "true") || v == "1"
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("LIST_DEFAULT_LIMIT", ""); v != "" {
		c.ListDefaultLimit = mustParseInt(v)
	}
	if v := getEnv("LIST_MAX_LIMIT", ""); v != "" {
		c.ListMaxLimit = mustParseInt(v)
	}
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func mustParseInt(val string) int {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		log.Fatalf("invalid integer value %q in configuration", val)
	}
	return n
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
