package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Reminder strategy names accepted in REMINDER_STRATEGY.
const (
	StrategyCalendar = "calendar"
	StrategyWebhook  = "webhook"
)

// Config holds application configuration. Credential fields are empty until
// populated from the secrets provider at bootstrap.
type Config struct {
	Env             string
	Port            string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	SecretName  string
	DatabaseURL string

	IMAPHost      string
	InvoiceSender string
	SubjectPrefix string
	FetchLimit    int

	EventBusName    string
	EventSource     string
	EventDetailType string

	QAProvider string
	QAModel    string

	ReminderStrategy string
	CalendarID       string

	// Populated from the secrets provider (or env fallback).
	MailUsername        string
	MailPassword        string
	QAAPIKey            string
	WebhookKey          string
	CalendarCredentials string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is empty in production; invoice ledger will be in-memory")
	}

	return Config{
		Env:             env,
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		SecretName:  getEnv("SECRET_NAME", ""),
		DatabaseURL: dbURL,

		IMAPHost:      getEnv("IMAP_HOST", "imap.gmail.com:993"),
		InvoiceSender: getEnv("INVOICE_SENDER", "customerservice@silverasset.com.au"),
		SubjectPrefix: getEnv("INVOICE_SUBJECT_PREFIX", "Important Notice: Your Silver Asset invoice"),
		FetchLimit:    getEnvInt("INVOICE_FETCH_LIMIT", 2),

		EventBusName:    getEnv("EVENT_BUS_NAME", "start-process-bill"),
		EventSource:     getEnv("EVENT_SOURCE", "my.bill.query"),
		EventDetailType: getEnv("EVENT_DETAIL_TYPE", "TriggerProcessBill"),

		QAProvider: getEnv("QA_PROVIDER", "openai"),
		QAModel:    getEnv("QA_MODEL", "gpt-4o-mini"),

		ReminderStrategy: normalizeStrategy(getEnv("REMINDER_STRATEGY", StrategyWebhook)),
		CalendarID:       getEnv("CALENDAR_ID", ""),

		MailUsername:        getEnv("GMAIL_USERNAME", ""),
		MailPassword:        getEnv("GMAIL_APP_PASSWORD", ""),
		QAAPIKey:            getEnv("OPENAI_API_KEY", ""),
		WebhookKey:          getEnv("IFTTT_WEBHOOK_KEY", ""),
		CalendarCredentials: getEnv("CALENDAR_CREDENTIALS_JSON", ""),
	}
}

// ApplySecrets copies known credential keys from a secrets payload into cfg.
// Values already set from the environment are only overridden when the secret
// has a non-empty value.
func (c *Config) ApplySecrets(secret map[string]string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(secret[key]); v != "" {
			*dst = v
		}
	}
	set(&c.MailUsername, "GMAIL_USERNAME")
	set(&c.MailPassword, "GMAIL_APP_PASSWORD")
	set(&c.QAAPIKey, "OPENAI_API_KEY")
	set(&c.WebhookKey, "IFTTT_WEBHOOK_KEY")
	set(&c.CalendarCredentials, "CALENDAR_CREDENTIALS_JSON")
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeStrategy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StrategyCalendar:
		return StrategyCalendar
	default:
		return StrategyWebhook
	}
}
