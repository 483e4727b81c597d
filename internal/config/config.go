package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	HTTPAddr     string
	CORSAllowAll bool
	CORSOrigins  []string
	Carriers     CarriersConfig
}

// CarriersConfig holds the resolved configuration for every carrier
// integration. The carrier adapters only ever see these structs; they never
// read the environment themselves.
type CarriersConfig struct {
	// OutboundTimeout bounds every outbound carrier call so one hung
	// carrier cannot stall a quote aggregation indefinitely.
	OutboundTimeout time.Duration
	Orient          OrientConfig
	Pusula          PusulaConfig
	Quick           QuickConfig
}

// OrientConfig configures the Orient Sigorta SOAP integration.
type OrientConfig struct {
	Enabled          bool
	MockMode         bool
	PolicyEndpoint   string
	UtilityEndpoint  string
	SecurityEndpoint string
	Username         string
	Password         string
	AppSecurityKey   string
	ProductCode      string
	TariffCode       string
	AgencyNo         string
	FallbackPremium  bool
}

// PusulaConfig configures the Türkiye Sigorta Pusula SOAP integration.
type PusulaConfig struct {
	Enabled         bool
	MockMode        bool
	Endpoint        string
	Username        string
	Password        string
	ProductCode     string
	DocBaseURL      string
	FallbackPremium bool
}

// QuickConfig configures the Quick Sigorta REST integration.
type QuickConfig struct {
	Enabled         bool
	MockMode        bool
	BaseURL         string
	ClientID        string
	ClientSecret    string
	Products        []string
	FallbackPremium bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:          getEnv("APP_ENV", "development"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll: corsAllowAll,
		CORSOrigins:  corsOrigins,
		Carriers: CarriersConfig{
			OutboundTimeout: mustDuration(getEnv("CARRIER_TIMEOUT", "15s")),
			Orient: OrientConfig{
				Enabled:          boolEnv("ORIENT_ENABLED"),
				MockMode:         strings.EqualFold(getEnv("ORIENT_SOAP_MODE", ""), "mock"),
				PolicyEndpoint:   getEnv("ORIENT_POLICY_ENDPOINT", ""),
				UtilityEndpoint:  getEnv("ORIENT_UTILITY_ENDPOINT", ""),
				SecurityEndpoint: getEnv("ORIENT_SECURITY_ENDPOINT", ""),
				Username:         getEnv("ORIENT_USERNAME", ""),
				Password:         getEnv("ORIENT_PASSWORD", ""),
				AppSecurityKey:   getEnv("ORIENT_APP_SECURITY_KEY", ""),
				ProductCode:      getEnv("ORIENT_PRODUCT_CODE", ""),
				TariffCode:       getEnv("ORIENT_TARIFF_CODE", ""),
				AgencyNo:         getEnv("ORIENT_AGENCY_NO", ""),
				FallbackPremium:  boolEnvDefault("ORIENT_FALLBACK_PREMIUM", true),
			},
			Pusula: PusulaConfig{
				Enabled:         boolEnv("PUSULA_ENABLED"),
				MockMode:        strings.EqualFold(getEnv("PUSULA_SOAP_MODE", ""), "mock"),
				Endpoint:        getEnv("PUSULA_ENDPOINT", ""),
				Username:        getEnv("PUSULA_USERNAME", ""),
				Password:        getEnv("PUSULA_PASSWORD", ""),
				ProductCode:     getEnv("PUSULA_PRODUCT_CODE", ""),
				DocBaseURL:      getEnv("PUSULA_DOC_BASE_URL", ""),
				FallbackPremium: boolEnvDefault("PUSULA_FALLBACK_PREMIUM", true),
			},
			Quick: QuickConfig{
				Enabled:         boolEnv("QUICK_ENABLED"),
				MockMode:        strings.EqualFold(getEnv("QUICK_MODE", ""), "mock"),
				BaseURL:         strings.TrimRight(getEnv("QUICK_API_BASE", ""), "/"),
				ClientID:        getEnv("QUICK_CLIENT_ID", ""),
				ClientSecret:    getEnv("QUICK_CLIENT_SECRET", ""),
				Products:        splitCSV(getEnv("QUICK_PRODUCTS", "")),
				FallbackPremium: boolEnvDefault("QUICK_FALLBACK_PREMIUM", true),
			},
		},
	}

	if cfg.Carriers.OutboundTimeout <= 0 {
		return nil, fmt.Errorf("CARRIER_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func boolEnv(key string) bool {
	return strings.EqualFold(getEnv(key, "false"), "true")
}

func boolEnvDefault(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.EqualFold(val, "true")
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
