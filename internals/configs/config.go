package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Conflict policies for the per-student schedule check at registration.
const (
	ConflictPolicyOverlap = "overlap"
	ConflictPolicyLegacy  = "legacy" // deprecated: exact string comparison
	ConflictPolicyOff     = "off"
)

var JWTSecret string

type Config struct {
	Port string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel       string
	CorsOrigins    []string
	RequestTimeout time.Duration

	ScheduleConflictPolicy string
	WSSendTimeout          time.Duration
	NotifyQueueSize        int
	FanoutLimit            int

	AttendanceAutoCloseCron string

	// JSON file of initial accounts; empty skips seeding.
	SeedUsersFile string
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("APP_ENV") == "production" {
		log.Println("🚀 Running in production, menggunakan ENV dari sistem")
	} else if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
	} else {
		log.Println("✅ .env file berhasil dimuat!")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	}
}

// Load reads the typed configuration. Call LoadEnv first.
func Load() Config {
	return Config{
		Port: GetEnv("PORT", "3000"),

		DBUser:     GetEnv("DB_USER"),
		DBPassword: GetEnv("DB_PASSWORD"),
		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBName:     GetEnv("DB_NAME"),
		DBSSLMode:  GetEnv("DB_SSLMODE", "disable"),

		JWTSecret: GetEnv("JWT_SECRET"),
		JWTTTL:    GetDuration("JWT_TTL", 24*time.Hour),

		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		CorsOrigins:    GetList("CORS_ORIGINS", "http://localhost:5173"),
		RequestTimeout: GetDuration("REQUEST_TIMEOUT", 5*time.Second),

		ScheduleConflictPolicy: NormalizeConflictPolicy(GetEnv("SCHEDULE_CONFLICT_POLICY")),
		WSSendTimeout:          GetDuration("WS_SEND_TIMEOUT", 5*time.Second),
		NotifyQueueSize:        GetInt("NOTIFY_QUEUE_SIZE", 1024),
		FanoutLimit:            GetInt("WS_FANOUT_LIMIT", 32),

		AttendanceAutoCloseCron: cronSpec(GetEnv("ATTENDANCE_AUTOCLOSE_CRON", "@every 1m")),
		SeedUsersFile:           GetEnv("SEED_USERS_FILE"),
	}
}

// "off" disables the session reaper.
func cronSpec(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), "off") {
		return ""
	}
	return strings.TrimSpace(v)
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || value == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func GetDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func GetList(key, def string) []string {
	raw := GetEnv(key, def)
	out := make([]string, 0)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeConflictPolicy falls back to overlap for anything unknown.
func NormalizeConflictPolicy(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case ConflictPolicyLegacy:
		return ConflictPolicyLegacy
	case ConflictPolicyOff:
		return ConflictPolicyOff
	default:
		return ConflictPolicyOverlap
	}
}
