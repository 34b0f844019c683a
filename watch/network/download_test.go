package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	content := strings.Repeat("save archive bytes ", 64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "world.zip", time.Now(), strings.NewReader(content))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "world.zip")
	require.NoError(t, Download(context.Background(), server.URL+"/d/abc123", dest, log.NewLogger()))

	downloaded, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, string(downloaded))
}

func TestDownload_EmptyURL(t *testing.T) {
	err := Download(context.Background(), "", filepath.Join(t.TempDir(), "world.zip"), log.NewLogger())
	require.Error(t, err)
}
