package secrets

import (
	"context"
	"os"
	"strings"
)

// Provider resolves a named secret into a map of credential names to values.
type Provider interface {
	GetSecret(ctx context.Context, name string) (map[string]string, error)
}

// EnvProvider resolves secrets from process environment variables. It is the
// dev fallback when no secrets manager is configured; the secret name is
// ignored and only the requested keys are read.
type EnvProvider struct {
	Keys []string
}

// GetSecret returns the configured keys with their env values. Unset keys are
// omitted.
func (p EnvProvider) GetSecret(ctx context.Context, name string) (map[string]string, error) {
	_ = ctx
	_ = name
	out := make(map[string]string, len(p.Keys))
	for _, key := range p.Keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			out[key] = v
		}
	}
	return out, nil
}

// CredentialKeys are the credential names the pipeline expects in its secret.
func CredentialKeys() []string {
	return []string{
		"GMAIL_USERNAME",
		"GMAIL_APP_PASSWORD",
		"OPENAI_API_KEY",
		"IFTTT_WEBHOOK_KEY",
		"CALENDAR_CREDENTIALS_JSON",
	}
}
