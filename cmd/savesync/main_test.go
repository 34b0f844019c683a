package main

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

func TestRunRestore(t *testing.T) {
	content := strings.Repeat("restored save ", 32)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "world.zip", time.Now(), strings.NewReader(content))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "world.zip")
	err := runRestore(context.Background(), []string{server.URL + "/d/abc123", dest}, log.NewLogger())
	require.NoError(t, err)

	downloaded, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, string(downloaded))
}

func TestRunRestore_MissingURL(t *testing.T) {
	err := runRestore(context.Background(), nil, log.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}

func TestRunRestore_NoDerivableFileName(t *testing.T) {
	err := runRestore(context.Background(), []string{"https://share.example.com/"}, log.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination")
}
