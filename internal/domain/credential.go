package domain

import (
	"fmt"
	"strings"
)

type Provider string

type CredentialStatus string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"

	CredentialActive   CredentialStatus = "active"
	CredentialDegraded CredentialStatus = "degraded"
)

func SupportedProviders() []Provider {
	return []Provider{ProviderOpenAI, ProviderGemini}
}

// Credential is a provider API key held in the pool. The key value is its
// identity and must be unique within the pool.
type Credential struct {
	Key      string
	Provider Provider
	Status   CredentialStatus
}

func (c Credential) Validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("key is required")
	}
	if strings.TrimSpace(string(c.Provider)) == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Provider != ProviderOpenAI && c.Provider != ProviderGemini {
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if c.Status != CredentialActive && c.Status != CredentialDegraded {
		return fmt.Errorf("invalid status %q", c.Status)
	}

	return nil
}

// Redacted returns a display form of the key safe for logs and terminals.
func (c Credential) Redacted() string {
	key := strings.TrimSpace(c.Key)
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}
