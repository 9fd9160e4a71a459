package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Session      SessionConfig
	WorkingHours WorkingHoursConfig
	SLA          SLAConfig
	Escalation   EscalationConfig
	Sweeper      SweeperConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication and lockout parameters.
type AuthConfig struct {
	JWTSecret        string
	BcryptCost       int
	MaxLoginAttempts int
	LockoutMinutes   int
}

// SessionConfig governs the session lifecycle state machine.
type SessionConfig struct {
	TimeoutMinutes int
	WarningMinutes int
	RetentionDays  int
	MaxViolations  int
	TrustedProxies []netip.Prefix
}

// Timeout returns the idle timeout as a duration.
func (s SessionConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMinutes) * time.Minute
}

// WarningWindow returns the advisory warning window as a duration.
func (s SessionConfig) WarningWindow() time.Duration {
	return time.Duration(s.WarningMinutes) * time.Minute
}

// ClockTime is a time of day without a date.
type ClockTime struct {
	Hour   int
	Minute int
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// WorkingHoursConfig describes the business-hours calendar: active
// weekdays plus one same-day window. Start must precede End.
type WorkingHoursConfig struct {
	Days  map[time.Weekday]bool
	Start ClockTime
	End   ClockTime
}

// SLAThreshold pairs first-response and resolution limits, in
// business hours.
type SLAThreshold struct {
	ResponseHours   float64
	ResolutionHours float64
}

// SLAConfig maps every priority to its thresholds.
type SLAConfig struct {
	Thresholds map[domain.TicketPriority]SLAThreshold
}

// EscalationConfig maps urgent/high priorities to the unassigned-age
// trigger in wall-clock hours. Renotify keeps the re-notify-every-run
// behavior overridable.
type EscalationConfig struct {
	UnassignedAgeHours map[domain.TicketPriority]float64
	Renotify           bool
}

// SweeperConfig controls batch job scheduling.
type SweeperConfig struct {
	EscalationSpec string
	SLASpec        string
	AutoCloseSpec  string
	SessionGCSpec  string
	AutoCloseDays  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	whStart, err := parseClock(getEnv("WORKING_HOURS_START", "09:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKING_HOURS_START: %w", err)
	}
	whEnd, err := parseClock(getEnv("WORKING_HOURS_END", "18:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKING_HOURS_END: %w", err)
	}
	whDays, err := parseWeekdays(getEnv("WORKING_DAYS", "MON,TUE,WED,THU,FRI"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKING_DAYS: %w", err)
	}

	proxies, err := parsePrefixes(getEnv("SESSION_TRUSTED_PROXY_CIDRS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TRUSTED_PROXY_CIDRS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-core"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("AUTH_JWT_SECRET", "dev-secret"),
			BcryptCost:       getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MaxLoginAttempts: getEnvAsInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockoutMinutes:   getEnvAsInt("AUTH_LOCKOUT_MINUTES", 15),
		},
		Session: SessionConfig{
			TimeoutMinutes: getEnvAsInt("SESSION_TIMEOUT_MINUTES", 120),
			WarningMinutes: getEnvAsInt("SESSION_WARNING_MINUTES", 10),
			RetentionDays:  getEnvAsInt("SESSION_RETENTION_DAYS", 30),
			MaxViolations:  getEnvAsInt("SESSION_MAX_VIOLATIONS", 3),
			TrustedProxies: proxies,
		},
		WorkingHours: WorkingHoursConfig{
			Days:  whDays,
			Start: whStart,
			End:   whEnd,
		},
		SLA: SLAConfig{
			Thresholds: map[domain.TicketPriority]SLAThreshold{
				domain.TicketPriorityLow: {
					ResponseHours:   getEnvAsFloat("SLA_LOW_RESPONSE_HOURS", 24),
					ResolutionHours: getEnvAsFloat("SLA_LOW_RESOLUTION_HOURS", 72),
				},
				domain.TicketPriorityMedium: {
					ResponseHours:   getEnvAsFloat("SLA_MEDIUM_RESPONSE_HOURS", 8),
					ResolutionHours: getEnvAsFloat("SLA_MEDIUM_RESOLUTION_HOURS", 48),
				},
				domain.TicketPriorityHigh: {
					ResponseHours:   getEnvAsFloat("SLA_HIGH_RESPONSE_HOURS", 4),
					ResolutionHours: getEnvAsFloat("SLA_HIGH_RESOLUTION_HOURS", 24),
				},
				domain.TicketPriorityUrgent: {
					ResponseHours:   getEnvAsFloat("SLA_URGENT_RESPONSE_HOURS", 2),
					ResolutionHours: getEnvAsFloat("SLA_URGENT_RESOLUTION_HOURS", 8),
				},
			},
		},
		Escalation: EscalationConfig{
			UnassignedAgeHours: map[domain.TicketPriority]float64{
				domain.TicketPriorityUrgent: getEnvAsFloat("ESCALATION_URGENT_HOURS", 2),
				domain.TicketPriorityHigh:   getEnvAsFloat("ESCALATION_HIGH_HOURS", 4),
			},
			Renotify: getEnvAsBool("ESCALATION_RENOTIFY", true),
		},
		Sweeper: SweeperConfig{
			EscalationSpec: getEnv("SWEEP_ESCALATION_CRON", "0 * * * *"),
			SLASpec:        getEnv("SWEEP_SLA_CRON", "30 * * * *"),
			AutoCloseSpec:  getEnv("SWEEP_AUTOCLOSE_CRON", "0 3 * * *"),
			SessionGCSpec:  getEnv("SWEEP_SESSION_GC_CRON", "15 4 * * *"),
			AutoCloseDays:  getEnvAsInt("AUTO_CLOSE_DAYS", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configuration defects that would otherwise
// produce nonsensical evaluation results downstream.
func (c *Config) Validate() error {
	if c.WorkingHours.Start.Minutes() >= c.WorkingHours.End.Minutes() {
		return fmt.Errorf("working hours start %02d:%02d must precede end %02d:%02d",
			c.WorkingHours.Start.Hour, c.WorkingHours.Start.Minute,
			c.WorkingHours.End.Hour, c.WorkingHours.End.Minute)
	}
	if len(c.WorkingHours.Days) == 0 {
		return fmt.Errorf("at least one working day is required")
	}
	for _, p := range domain.Priorities() {
		th, ok := c.SLA.Thresholds[p]
		if !ok {
			return fmt.Errorf("missing SLA thresholds for priority %s", p)
		}
		if th.ResponseHours <= 0 || th.ResolutionHours <= 0 {
			return fmt.Errorf("SLA thresholds for priority %s must be positive", p)
		}
	}
	for p, h := range c.Escalation.UnassignedAgeHours {
		if p != domain.TicketPriorityUrgent && p != domain.TicketPriorityHigh {
			return fmt.Errorf("escalation threshold configured for unsupported priority %s", p)
		}
		if h <= 0 {
			return fmt.Errorf("escalation threshold for priority %s must be positive", p)
		}
	}
	if c.Session.TimeoutMinutes <= 0 {
		return fmt.Errorf("session timeout must be positive")
	}
	if c.Session.MaxViolations <= 0 {
		return fmt.Errorf("session max violations must be positive")
	}
	if c.Sweeper.AutoCloseDays <= 0 {
		return fmt.Errorf("auto close days must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func parseClock(val string) (ClockTime, error) {
	parts := strings.SplitN(strings.TrimSpace(val), ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("expected HH:MM, got %q", val)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", val)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", val)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

var weekdayNames = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

func parseWeekdays(val string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	for _, token := range strings.Split(val, ",") {
		token = strings.ToUpper(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		day, ok := weekdayNames[token]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", token)
		}
		days[day] = true
	}
	return days, nil
}

func parsePrefixes(val string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, token := range strings.Split(val, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(token)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
