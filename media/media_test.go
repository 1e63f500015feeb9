// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir, "http://localhost:3318/")
	require.NoError(t, err)

	data := []byte("\x89PNG fake image bytes")
	url, err := store.Save(context.Background(), "jane.PNG", "image/png", data)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://localhost:3318/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	file := strings.TrimPrefix(url, "http://localhost:3318/uploads/")
	got, err := os.ReadFile(filepath.Join(dir, file))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Same content, same URL
	again, err := store.Save(context.Background(), "other-name.png", "image/png", data)
	require.NoError(t, err)
	assert.Equal(t, url, again)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDiskStoreCancelled(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "a.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name, contentType, want string
	}{
		{"photo.JPG", "image/jpeg", ".jpg"},
		{"photo", "image/jpeg", ".jpg"},
		{"photo", "image/png", ".png"},
		{"", "image/gif", ".gif"},
		{"", "application/x-unknown-thing", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extension(tt.name, tt.contentType), "%s %s", tt.name, tt.contentType)
	}
}

func TestS3StoreSave(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))

	var (
		mu          sync.Mutex
		gotMethod   string
		gotPath     string
		gotType     string
		gotReceived bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotMethod, gotPath, gotType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		io.Copy(io.Discard, r.Body)
		gotReceived = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:   "candidates",
		Region:   "us-east-1",
		Endpoint: srv.URL,
		Prefix:   "images/",
	})
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "jane.jpg", "image/jpeg", []byte("jpeg bytes"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.True(t, gotReceived)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/candidates/images/"), gotPath)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, srv.URL+gotPath, url)
}
