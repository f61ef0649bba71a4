package diagnostics

import (
	"ask-relay/internal/config"
	"ask-relay/internal/entity"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const transcriptHTML = `<html><head><title>Labs</title></head><body>
<div><main><div><div>
  <div>sidebar</div>
  <div><div><div><div><div>
    <div><div><div><div>first answer</div></div></div></div>
    <div>question two</div>
    <div><div><div><div>second answer</div></div></div></div>
  </div></div></div></div></div>
</div></div></main></div>
<textarea placeholder="Ask anything..."></textarea>
</body></html>`

func TestSummarize(t *testing.T) {
	summary, err := Summarize(transcriptHTML)
	require.NoError(t, err)

	assert.Equal(t, "Labs", summary.Title)
	assert.True(t, summary.InputPresent)
	assert.Equal(t, 3, summary.TurnCount)
	assert.Equal(t, 2, summary.AnswerTurns)
}

func TestSummarizeDriftedLayout(t *testing.T) {
	summary, err := Summarize(`<html><body><section>new layout</section></body></html>`)
	require.NoError(t, err)

	assert.False(t, summary.InputPresent)
	assert.Zero(t, summary.TurnCount)
}

func TestNewArchiverDisabled(t *testing.T) {
	archiver, err := NewArchiver(Params{
		Config: &config.Config{DiagnosticsConfig: &config.DiagnosticsConfig{}},
		Logger: zaptest.NewLogger(t),
	})

	require.NoError(t, err)
	assert.Nil(t, archiver)
}

type objectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *objectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusOK)
		return
	}

	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.objects[r.URL.Path] = body
	s.mu.Unlock()

	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func TestArchiveUploadsArtefacts(t *testing.T) {
	store := &objectStore{objects: map[string][]byte{}}
	server := httptest.NewServer(store)
	defer server.Close()

	endpoint, err := url.Parse(server.URL)
	require.NoError(t, err)

	archiver, err := newMinIOArchiver(&config.DiagnosticsConfig{
		MinIOEndpoint:  endpoint.Host,
		MinIOAccessKey: "access",
		MinIOSecretKey: "secret",
		MinIOBucket:    "diag",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	screenshot := filepath.Join(t.TempDir(), "error_screenshot.png")
	require.NoError(t, os.WriteFile(screenshot, []byte("png-bytes"), 0o644))

	diag := entity.Diagnostics{
		RequestID:      uuid.MustParse("6f1c0e64-5b3a-4d0c-9d4e-0c3b1c8f2a11"),
		URL:            "https://labs.example.test/",
		ScreenshotPath: screenshot,
		HTML:           transcriptHTML,
		CapturedAt:     time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, archiver.Archive(context.Background(), diag))

	prefix := "/diag/exhaustion/2026-10-17/6f1c0e64-5b3a-4d0c-9d4e-0c3b1c8f2a11/"

	store.mu.Lock()
	defer store.mu.Unlock()

	// Bodies may arrive aws-chunked, so only look for the payload inside them.
	require.Contains(t, store.objects, prefix+"page.html")
	require.Contains(t, store.objects, prefix+"screenshot.png")
	require.Contains(t, store.objects, prefix+"manifest.json")

	assert.Contains(t, string(store.objects[prefix+"page.html"]), "second answer")
	assert.Contains(t, string(store.objects[prefix+"screenshot.png"]), "png-bytes")

	manifestBody := string(store.objects[prefix+"manifest.json"])
	assert.Contains(t, manifestBody, `"turn_count":3`)
	assert.Contains(t, manifestBody, `"url":"https://labs.example.test/"`)
	assert.True(t, strings.HasSuffix(objectKeyPrefix(diag), "6f1c0e64-5b3a-4d0c-9d4e-0c3b1c8f2a11"))
}
