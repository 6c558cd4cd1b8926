package acquisition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/zerox/internal/logging"
)

func TestAcquire_LocalFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "input.pdf")
	require.NoError(t, os.WriteFile(srcPath, []byte("%PDF-1.4 fake"), 0o644))

	tempDir := filepath.Join(dir, "run")
	acquired, err := Acquire(context.Background(), logging.NewLogger("test"), srcPath, tempDir)
	require.NoError(t, err)

	assert.Equal(t, ".pdf", acquired.Extension)
	assert.False(t, acquired.IsCompoundBinaryOffice)

	data, err := os.ReadFile(acquired.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestAcquire_DetectsCompoundBinaryOfficeMasqueradingAsPDF(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "legacy.pdf")
	payload := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, []byte("rest of ole2 body")...)
	require.NoError(t, os.WriteFile(srcPath, payload, 0o644))

	acquired, err := Acquire(context.Background(), logging.NewLogger("test"), srcPath, filepath.Join(dir, "run"))
	require.NoError(t, err)
	assert.True(t, acquired.IsCompoundBinaryOffice)
}

func TestAcquire_RemoteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote pdf bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	acquired, err := Acquire(context.Background(), logging.NewLogger("test"), server.URL+"/doc.pdf", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(acquired.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "remote pdf bytes", string(data))
}

func TestAcquire_RemoteURLNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Acquire(context.Background(), logging.NewLogger("test"), server.URL+"/missing.pdf", t.TempDir())
	assert.Error(t, err)
}

func TestAcquire_MissingLocalFile(t *testing.T) {
	_, err := Acquire(context.Background(), logging.NewLogger("test"), "/nonexistent/path.pdf", t.TempDir())
	assert.Error(t, err)
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, isRemoteURL("https://example.com/doc.pdf"))
	assert.True(t, isRemoteURL("http://example.com/doc.pdf"))
	assert.False(t, isRemoteURL("/local/path.pdf"))
	assert.False(t, isRemoteURL("relative/path.pdf"))
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "/doc.pdf", stripQuery("/doc.pdf?token=abc"))
	assert.Equal(t, "/doc.pdf", stripQuery("/doc.pdf"))
}
