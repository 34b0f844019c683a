package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}

func TestSimpleStore_Upload(t *testing.T) {
	var gotPath, gotFileName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close() //nolint:errcheck
		gotFileName = header.Filename

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"success": true,
			"data":    map[string]string{"shortId": "abc123"},
		})
	}))
	defer server.Close()

	path := writeTempFile(t, "world.zip", []byte("0123456789"))

	store := NewSimpleStore(server.URL)
	url, err := store.Upload(context.Background(), UploadParams{
		FilePath: path,
		FileName: "world.zip",
	}, log.NewLogger())

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/d/abc123", url)
	assert.Equal(t, "/api/files/upload", gotPath)
	assert.Equal(t, "world.zip", gotFileName)
}

func TestSimpleStore_Upload_ProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"success": false,
			"message": "quota exceeded",
		})
	}))
	defer server.Close()

	path := writeTempFile(t, "world.zip", []byte("data"))

	store := NewSimpleStore(server.URL)
	_, err := store.Upload(context.Background(), UploadParams{FilePath: path}, log.NewLogger())

	require.Error(t, err)
	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Contains(t, protocolErr.Message, "quota exceeded")
}

func TestSimpleStore_Upload_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("no anonymous uploads")) //nolint:errcheck
	}))
	defer server.Close()

	path := writeTempFile(t, "world.zip", []byte("data"))

	store := NewSimpleStore(server.URL)
	_, err := store.Upload(context.Background(), UploadParams{FilePath: path}, log.NewLogger())

	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusForbidden, transportErr.StatusCode)
	assert.Contains(t, transportErr.Body, "no anonymous uploads")
}

func TestSimpleStore_Upload_MissingEndpoint(t *testing.T) {
	store := NewSimpleStore("")
	_, err := store.Upload(context.Background(), UploadParams{FilePath: "whatever"}, log.NewLogger())

	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}
