package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Check-in and check-out hour offsets applied to the validity window of a
// lock PIN. Zero keeps the reservation times as booked.
const (
	DefaultCheckInHourOffset  = 0
	DefaultCheckOutHourOffset = 0
)

const (
	DefaultPageSize      = 2
	MaxPageSize          = 100
	MaxPage              = math.MaxInt32 / MaxPageSize
	DefaultOTPSuffix     = "#"
	DefaultTimezone      = "Asia/Kolkata"
	DefaultCountryCode   = "+91"
	DefaultTokenTTL      = 50 * time.Minute
	DefaultDirectoryTTL  = 6 * time.Hour
	DefaultRefreshSpec   = "@every 30m"
	DefaultWhatsAppName  = "ezee_reservation_room_details"
	DefaultWhatsAppLang  = "en"
	DefaultSMSKeyHeader  = "X-API-Key"
	DefaultWhatsAppAuth  = "Basic"
	DefaultOTPStatusText = "OTP Generated"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string
	LogFormat   string

	UseMemoryStore bool
	Database       DatabaseConfig
	Lock           LockConfig
	WhatsApp       WhatsAppConfig
	SMS            SMSConfig
	Twilio         TwilioConfig
	Property       PropertyConfig

	DefaultPageSize int
	WebhookSecret   string

	EnableDebugRoutes bool
	AdminAPIKey       string
}

type DatabaseConfig struct {
	Driver                 string // postgres or mysql
	URL                    string
	User                   string
	Password               string
	Name                   string
	Host                   string
	Port                   string
	InstanceConnectionName string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetime        time.Duration
}

type LockConfig struct {
	Endpoint        string
	APIKey          string
	BearerToken     string
	HTTPTimeout     time.Duration
	TokenTTL        time.Duration
	DirectoryTTL    time.Duration
	SessionRedisURL string
	RefreshSchedule string
}

type WhatsAppConfig struct {
	Provider     string // http or twilio
	Endpoint     string
	APIKey       string
	AuthScheme   string
	TemplateName string
	LanguageCode string
	CountryCode  string
	HTTPTimeout  time.Duration
}

type SMSConfig struct {
	Provider     string // http or twilio
	Endpoint     string
	APIKey       string
	APIKeyHeader string
	SenderID     string
	CountryCode  string
	HTTPTimeout  time.Duration
}

type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	PhoneNumber         string
	WhatsAppFrom        string
	WhatsAppTemplateSID string
}

type PropertyConfig struct {
	Timezone           string
	CheckInHourOffset  int
	CheckOutHourOffset int
	OTPSuffix          string
	OTPStatus          string
}

// Location resolves the property time zone, falling back to UTC
func (p PropertyConfig) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		logrus.Warnf("Invalid PROPERTY_TIMEZONE %q, using UTC", p.Timezone)
		return time.UTC
	}
	return loc
}

// Load reads .env files then the process environment
func Load() *Config {
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			if err := godotenv.Load("environments/.env.development"); err != nil {
				logrus.Warn("No .env file found, using system environment variables")
			}
		}
	}

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		Environment:    getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		UseMemoryStore: getBool("USE_MEMORY_STORE", false),
		Database: DatabaseConfig{
			Driver:                 strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			URL:                    getEnv("DATABASE_URL", ""),
			User:                   getEnv("DB_USER", "postgres"),
			Password:               getEnv("DB_PASS", ""),
			Name:                   getEnv("DB_NAME", "guestotp"),
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnv("DB_PORT", ""),
			InstanceConnectionName: getEnv("INSTANCE_CONNECTION_NAME", ""),
			MaxOpenConns:           getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:           getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:        getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Lock: LockConfig{
			Endpoint:        strings.TrimRight(getEnv("ATOMBERG_ENDPOINT", ""), "/"),
			APIKey:          getEnv("ATOMBERG_KEY", ""),
			BearerToken:     getEnv("ATOMBERG_TOKEN", ""),
			HTTPTimeout:     getDuration("LOCK_HTTP_TIMEOUT", 10*time.Second),
			TokenTTL:        getDuration("LOCK_TOKEN_TTL", DefaultTokenTTL),
			DirectoryTTL:    getDuration("LOCK_DIRECTORY_TTL", DefaultDirectoryTTL),
			SessionRedisURL: getEnv("LOCK_SESSION_REDIS_URL", ""),
			RefreshSchedule: getEnv("LOCK_SESSION_REFRESH_CRON", DefaultRefreshSpec),
		},
		WhatsApp: WhatsAppConfig{
			Provider:     strings.ToLower(getEnv("WHATSAPP_PROVIDER", "http")),
			Endpoint:     getEnv("WHATSAPP_ENDPOINT", ""),
			APIKey:       getEnv("WHATSAPP_API_KEY", ""),
			AuthScheme:   getEnv("WHATSAPP_AUTH_SCHEME", DefaultWhatsAppAuth),
			TemplateName: getEnv("WHATSAPP_TEMPLATE_NAME", DefaultWhatsAppName),
			LanguageCode: getEnv("WHATSAPP_LANGUAGE_CODE", DefaultWhatsAppLang),
			CountryCode:  getEnv("WHATSAPP_COUNTRY_CODE", DefaultCountryCode),
			HTTPTimeout:  getDuration("WHATSAPP_HTTP_TIMEOUT", 10*time.Second),
		},
		SMS: SMSConfig{
			Provider:     strings.ToLower(getEnv("SMS_PROVIDER", "http")),
			Endpoint:     getEnv("SMS_ENDPOINT", ""),
			APIKey:       getEnv("SMS_API_KEY", ""),
			APIKeyHeader: getEnv("SMS_API_KEY_HEADER", DefaultSMSKeyHeader),
			SenderID:     getEnv("SMS_SENDER_ID", ""),
			CountryCode:  getEnv("SMS_COUNTRY_CODE", DefaultCountryCode),
			HTTPTimeout:  getDuration("SMS_HTTP_TIMEOUT", 10*time.Second),
		},
		Twilio: TwilioConfig{
			AccountSID:          getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:           getEnv("TWILIO_AUTH_TOKEN", ""),
			PhoneNumber:         getEnv("TWILIO_PHONE_NUMBER", ""),
			WhatsAppFrom:        getEnv("TWILIO_WHATSAPP_FROM", ""),
			WhatsAppTemplateSID: getEnv("TWILIO_WHATSAPP_TEMPLATE_SID", ""),
		},
		Property: PropertyConfig{
			Timezone:           getEnv("PROPERTY_TIMEZONE", DefaultTimezone),
			CheckInHourOffset:  getInt("CHECKIN_HOUR_OFFSET", DefaultCheckInHourOffset),
			CheckOutHourOffset: getInt("CHECKOUT_HOUR_OFFSET", DefaultCheckOutHourOffset),
			OTPSuffix:          getEnv("OTP_SUFFIX", DefaultOTPSuffix),
			OTPStatus:          getEnv("OTP_STATUS_LABEL", DefaultOTPStatusText),
		},
		DefaultPageSize:   clampPageSize(getInt("DEFAULT_PAGE_SIZE", DefaultPageSize)),
		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),
		EnableDebugRoutes: getBool("ENABLE_DEBUG_ROUTES", false),
		AdminAPIKey:       getEnv("ADMIN_API_KEY", ""),
	}
}

func clampPageSize(n int) int {
	if n < 1 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, raw, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %v", key, raw, fallback)
		return fallback
	}
	return b
}

// getDuration accepts Go durations ("15s") or plain seconds ("15")
func getDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %s", key, raw, fallback)
		return fallback
	}
	return d
}
