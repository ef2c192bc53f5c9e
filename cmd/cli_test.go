package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()

	t.Setenv("HOME", home)

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("BULKIMG_OPENAI_BASE_URL", server.URL)
	t.Setenv("BULKIMG_COOLDOWN", "1ms")

	return server
}

func imagePayload(payloads ...string) []byte {
	data := make([]map[string]string, 0, len(payloads))
	for _, payload := range payloads {
		data = append(data, map[string]string{"b64_json": payload})
	}
	body, _ := json.Marshal(map[string]any{"data": data})
	return body
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestKeyAddAndList(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "key", "add", "sk-first-key-0001", "--provider", "openai")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added openai key")

	stdout, _, err = executeCLI(t, home, "key", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sk-f…0001")
	assert.Contains(t, stdout, "openai")
	assert.Contains(t, stdout, "active")
}

func TestKeyAddRejectsUnknownProvider(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "key", "add", "sk-x", "--provider", "imaginarium")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestKeyAddRejectsDuplicate(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "key", "add", "sk-dup")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "key", "add", "sk-dup")
	require.ErrorIs(t, err, domain.ErrCredentialExists)
}

func TestGenerateRequiresActiveKeys(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "generate", "--plain", "a fox")
	require.ErrorIs(t, err, domain.ErrNoActiveCredentials)
}

func TestGeneratePlainWritesImagesAndHistory(t *testing.T) {
	home := t.TempDir()
	outDir := filepath.Join(home, "out")

	newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(imagePayload("aW1hZ2Ux", "aW1hZ2Uy"))
	})

	_, _, err := executeCLI(t, home, "key", "add", "sk-test-key-0001")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home,
		"generate", "--plain",
		"--count", "2",
		"--out", outDir,
		"a red fox",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[1/1] a red fox: 2 image(s)")
	assert.Contains(t, stdout, "session: ")

	first, err := os.ReadFile(filepath.Join(outDir, "prompt-001-image-01.png"))
	require.NoError(t, err)
	assert.Equal(t, "image1", string(first))

	second, err := os.ReadFile(filepath.Join(outDir, "prompt-001-image-02.png"))
	require.NoError(t, err)
	assert.Equal(t, "image2", string(second))

	stdout, _, err = executeCLI(t, home, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1")
}

func TestGenerateRotatesToSecondKeyOnRateLimit(t *testing.T) {
	home := t.TempDir()

	newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer sk-limited-key-0001" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
			return
		}
		_, _ = w.Write(imagePayload("aW1hZ2Ux"))
	})

	_, _, err := executeCLI(t, home, "key", "add", "sk-limited-key-0001")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "key", "add", "sk-healthy-key-0002")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "generate", "--plain", "a fox")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[1/1] a fox: 1 image(s)")

	stdout, _, err = executeCLI(t, home, "key", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "degraded")

	// Manual recovery makes the key eligible again.
	_, _, err = executeCLI(t, home, "key", "reset")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "key", "list")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "degraded")
}

func TestGeneratePromptsFile(t *testing.T) {
	home := t.TempDir()

	promptsFile := filepath.Join(home, "prompts.txt")
	require.NoError(t, os.WriteFile(promptsFile, []byte("# zoo batch\na fox\n\na heron\n"), 0o644))

	newOpenAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(imagePayload("aW1hZ2Ux"))
	})

	_, _, err := executeCLI(t, home, "key", "add", "sk-test-key-0001")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "generate", "--plain", "--prompts", promptsFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[1/2] a fox: 1 image(s)")
	assert.Contains(t, stdout, "[2/2] a heron: 1 image(s)")
}

func TestHistoryShowDeleteAndClear(t *testing.T) {
	home := t.TempDir()

	newOpenAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(imagePayload("aW1hZ2Ux"))
	})

	_, _, err := executeCLI(t, home, "key", "add", "sk-test-key-0001")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "generate", "--plain", "a fox")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "generate", "--plain", "a heron")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "history", "list", "--json")
	require.NoError(t, err)

	var sessions []domain.Session
	require.NoError(t, json.Unmarshal([]byte(stdout), &sessions))
	require.Len(t, sessions, 2)
	// Newest first.
	assert.Equal(t, "a heron", sessions[0].Outcomes[0].Prompt)

	stdout, _, err = executeCLI(t, home, "history", "show", sessions[1].ID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "a fox: 1 image(s)")

	_, _, err = executeCLI(t, home, "history", "delete", sessions[1].ID)
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "history", "show", sessions[1].ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, _, err = executeCLI(t, home, "history", "clear")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no sessions recorded")
}

func TestGenerateRecordsPromptRejection(t *testing.T) {
	home := t.TempDir()

	newOpenAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Rejected by our safety system","code":"content_policy_violation"}}`))
	})

	_, _, err := executeCLI(t, home, "key", "add", "sk-test-key-0001")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "generate", "--plain", "bad prompt")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rejected by our safety system")

	// The key is not to blame for a rejected prompt.
	stdout, _, err = executeCLI(t, home, "key", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "active")
	assert.NotContains(t, stdout, "degraded")
}
