package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		credential Credential
		wantErr    string
	}{
		{
			name:       "valid openai",
			credential: Credential{Key: "sk-test", Provider: ProviderOpenAI, Status: CredentialActive},
		},
		{
			name:       "valid gemini",
			credential: Credential{Key: "AIza-test", Provider: ProviderGemini, Status: CredentialDegraded},
		},
		{
			name:       "missing key",
			credential: Credential{Provider: ProviderOpenAI, Status: CredentialActive},
			wantErr:    "key is required",
		},
		{
			name:       "missing provider",
			credential: Credential{Key: "sk-test", Status: CredentialActive},
			wantErr:    "provider is required",
		},
		{
			name:       "unsupported provider",
			credential: Credential{Key: "sk-test", Provider: "foo", Status: CredentialActive},
			wantErr:    "unsupported provider",
		},
		{
			name:       "invalid status",
			credential: Credential{Key: "sk-test", Provider: ProviderOpenAI, Status: "resting"},
			wantErr:    "invalid status",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.credential.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestPoolActiveKeepsPoolOrder(t *testing.T) {
	t.Parallel()

	pool := NewPool([]Credential{
		{Key: "k1", Provider: ProviderOpenAI, Status: CredentialActive},
		{Key: "k2", Provider: ProviderOpenAI, Status: CredentialDegraded},
		{Key: "k3", Provider: ProviderGemini, Status: CredentialActive},
	})

	active := pool.Active()
	assert.Equal(t, []string{"k1", "k3"}, keysOf(active))
}

func TestPoolActiveForFiltersProvider(t *testing.T) {
	t.Parallel()

	pool := NewPool([]Credential{
		{Key: "k1", Provider: ProviderOpenAI, Status: CredentialActive},
		{Key: "k2", Provider: ProviderGemini, Status: CredentialActive},
	})

	assert.Equal(t, []string{"k2"}, keysOf(pool.ActiveFor(ProviderGemini)))
	assert.Equal(t, []string{"k1", "k2"}, keysOf(pool.ActiveFor("")))
}

func TestPoolMarkDegradedIsIdempotent(t *testing.T) {
	t.Parallel()

	pool := NewPool([]Credential{{Key: "k1", Provider: ProviderOpenAI}})

	pool.MarkDegraded("k1")
	pool.MarkDegraded("k1")
	pool.MarkDegraded("unknown")

	assert.Equal(t, CredentialDegraded, pool.Credentials[0].Status)
	assert.Empty(t, pool.Active())
}

func TestPoolResetDegradedReactivatesAllMembers(t *testing.T) {
	t.Parallel()

	pool := NewPool([]Credential{
		{Key: "k1", Provider: ProviderOpenAI, Status: CredentialDegraded},
		{Key: "k2", Provider: ProviderOpenAI, Status: CredentialDegraded},
		{Key: "k3", Provider: ProviderOpenAI, Status: CredentialActive},
	})

	pool.ResetDegraded()

	assert.Len(t, pool.Active(), 3)
}

func TestPoolMarkActiveRecoversOneMember(t *testing.T) {
	t.Parallel()

	pool := NewPool([]Credential{
		{Key: "k1", Provider: ProviderOpenAI, Status: CredentialDegraded},
		{Key: "k2", Provider: ProviderOpenAI, Status: CredentialDegraded},
	})

	pool.MarkActive("k2")

	assert.Equal(t, []string{"k2"}, keysOf(pool.Active()))
}

func TestPoolNormalizeDeduplicatesAndDefaultsStatus(t *testing.T) {
	t.Parallel()

	pool := NewPool([]Credential{
		{Key: " k1 ", Provider: ProviderOpenAI},
		{Key: "", Provider: ProviderOpenAI},
		{Key: "k1", Provider: ProviderOpenAI},
		{Key: "k2", Provider: ProviderGemini, Status: CredentialDegraded},
	})

	assert.Equal(t, []string{"k1", "k2"}, keysOf(pool.Credentials))
	assert.Equal(t, CredentialActive, pool.Credentials[0].Status)
	assert.Equal(t, CredentialDegraded, pool.Credentials[1].Status)
}

func TestCredentialRedacted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sk-a…wxyz", Credential{Key: "sk-abcdefgh-wxyz"}.Redacted())
	assert.Equal(t, "****", Credential{Key: "short"}.Redacted())
}

func keysOf(credentials []Credential) []string {
	keys := make([]string, 0, len(credentials))
	for _, credential := range credentials {
		keys = append(keys, credential.Key)
	}
	return keys
}
