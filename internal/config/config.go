// Package config loads service configuration from the environment and the
// optional hsnrates config file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	taxservice "github.com/craftline/salesdesk/internal/tax/service"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// Registered home state of the business; destination states equal to
	// it make an order intrastate, everything else (including unknown) is
	// interstate.
	HomeStateName string
	HomeStateCode string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr string

	Zoho      ZohoConfig
	Delhivery DelhiveryConfig
}

// ZohoConfig configures the Zoho Billing collaborator. Token refresh is
// handled outside this service; OAuthToken is the ready-to-use token.
type ZohoConfig struct {
	BaseURL        string
	OrganizationID string
	OAuthToken     string
}

// DelhiveryConfig configures the Delhivery collaborator.
type DelhiveryConfig struct {
	BaseURL        string
	APIToken       string
	PickupLocation string
	ClientName     string
	// Outbound requests per second allowed against the Delhivery API.
	RequestsPerSecond float64
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewHSNRatesHolder),
	fx.Provide(func(h *HSNRatesHolder) taxservice.RateSource { return h }),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "salesdesk"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		HomeStateName: getenv("HOME_STATE", "Karnataka"),
		HomeStateCode: getenv("HOME_STATE_CODE", "KA"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "salesdesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),

		Zoho: ZohoConfig{
			BaseURL:        getenv("ZOHO_BASE_URL", "https://www.zohoapis.in/billing/v1"),
			OrganizationID: strings.TrimSpace(getenv("ZOHO_ORGANIZATION_ID", "")),
			OAuthToken:     strings.TrimSpace(getenv("ZOHO_OAUTH_TOKEN", "")),
		},
		Delhivery: DelhiveryConfig{
			BaseURL:           getenv("DELHIVERY_BASE_URL", "https://track.delhivery.com"),
			APIToken:          strings.TrimSpace(getenv("DELHIVERY_API_TOKEN", "")),
			PickupLocation:    getenv("DELHIVERY_PICKUP_LOCATION", ""),
			ClientName:        getenv("DELHIVERY_CLIENT_NAME", ""),
			RequestsPerSecond: getenvFloat("DELHIVERY_RPS", 5),
		},
	}
}

// HomeState returns the configured home state pair.
func (c Config) HomeState() (name, code string) {
	return c.HomeStateName, c.HomeStateCode
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
