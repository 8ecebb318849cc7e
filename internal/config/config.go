package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default subject templates follow the production notification wording.
// Placeholders {period}, {from_date}, {to_date} and {environment} are
// substituted when the notification is rendered.
const (
	DefaultSuccessSubject = "Export HelloAsso du {from_date} au {to_date} ({environment})"
	DefaultErrorSubject   = "ECHEC export HelloAsso du {from_date} au {to_date} ({environment})"
)

// Config holds every runtime setting of the export pipeline. It is assembled
// once at startup; components receive the values they need through their
// constructors and never read the environment themselves.
type Config struct {
	// Runtime environment
	Environment string
	ProjectID   string

	// Secret Manager names for the HelloAsso credentials. Short names are
	// resolved against ProjectID; full resource paths pass through as-is.
	APIURLSecret       string
	TokenURLSecret     string
	ClientIDSecret     string
	ClientSecretSecret string

	// Artifact storage
	Bucket       string
	ObjectPrefix string
	SignedURLTTL time.Duration

	// Outcome notification
	OutcomeTopic   string
	NotifyEmails   []string
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoFromName  string
	SuccessSubject string
	ErrorSubject   string

	// Pipeline tuning
	PeriodGraceDays   int
	TokenSafetyMargin time.Duration
	CSVBOM            bool
}

// Load reads the configuration from the environment. A local .env file is
// honored when present so the CLI runs without exported variables.
func Load() (*Config, error) {
	// Ignore error if .env file doesn't exist
	_ = godotenv.Load()

	environment := getEnv("ENVIRONMENT", "dev")

	cfg := &Config{
		Environment:        environment,
		ProjectID:          getEnv("GOOGLE_CLOUD_PROJECT", ""),
		APIURLSecret:       getEnv("API_URL_SECRET", "helloasso-api-url"),
		TokenURLSecret:     getEnv("TOKEN_URL_SECRET", "helloasso-token-url"),
		ClientIDSecret:     getEnv("CLIENT_ID_SECRET", "helloasso-client-id"),
		ClientSecretSecret: getEnv("CLIENT_SECRET_SECRET", "helloasso-client-secret"),
		Bucket:             getEnv("EXPORT_BUCKET", ""),
		ObjectPrefix:       getEnv("EXPORT_OBJECT_PREFIX", environment),
		SignedURLTTL:       time.Duration(getEnvInt("SIGNED_URL_EXPIRATION", 172800)) * time.Second,
		OutcomeTopic:       getEnv("OUTCOME_TOPIC", ""),
		NotifyEmails:       splitList(getEnv("NOTIFY_EMAILS", "")),
		BrevoAPIKey:        getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:     getEnv("BREVO_FROM_EMAIL", ""),
		BrevoFromName:      getEnv("BREVO_FROM_NAME", "Export HelloAsso"),
		SuccessSubject:     getEnv("SUCCESS_SUBJECT_TEMPLATE", DefaultSuccessSubject),
		ErrorSubject:       getEnv("ERROR_SUBJECT_TEMPLATE", DefaultErrorSubject),
		PeriodGraceDays:    getEnvInt("PERIOD_GRACE_DAYS", 7),
		TokenSafetyMargin:  time.Duration(getEnvInt("TOKEN_SAFETY_MARGIN", 60)) * time.Second,
		CSVBOM:             getEnvBool("CSV_BOM", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("config: GOOGLE_CLOUD_PROJECT is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("config: EXPORT_BUCKET is required")
	}
	if c.SignedURLTTL <= 0 {
		return fmt.Errorf("config: SIGNED_URL_EXPIRATION must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// splitList parses a comma-separated value into trimmed, non-empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
