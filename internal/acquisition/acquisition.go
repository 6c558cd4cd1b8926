// Package acquisition resolves a local path or remote URL into bytes
// materialized under a fresh temp subdirectory, and determines the file's
// effective extension — including detecting compound-binary office files
// masquerading as a ".pdf" by their magic bytes.
package acquisition

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/adverant/zerox/internal/logging"
	"github.com/adverant/zerox/internal/pipelineerr"
	"github.com/adverant/zerox/internal/retry"
)

// compoundBinarySignature is the OLE2/CFB magic-byte header shared by legacy
// MS Office binary formats (.doc/.xls/.ppt). A file with a ".pdf" extension
// but this signature is a mislabeled legacy office document.
var compoundBinarySignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const (
	maxDownloadRetries = 4
	downloadTimeout    = 10 * time.Minute
)

// Acquired describes a materialized input file.
type Acquired struct {
	// Extension is the lowercase dotted suffix of the resolved path, e.g. ".pdf".
	Extension string
	// LocalPath is the on-disk location of the materialized bytes, inside tempDir.
	LocalPath string
	// IsCompoundBinaryOffice is true when a ".pdf"-extensioned input was
	// actually a legacy OLE2 office document and must be routed through
	// office-to-PDF conversion instead of being treated as a PDF.
	IsCompoundBinaryOffice bool
}

// Acquire resolves filePath (a local path or an http(s) URL), writes its
// bytes directly into tempDir (created if missing), and returns the resolved
// extension alongside the materialized path.
func Acquire(ctx context.Context, log *logging.Logger, filePath, tempDir string) (*Acquired, error) {
	var data []byte
	var baseName string
	var err error

	if isRemoteURL(filePath) {
		baseName = filepath.Base(stripQuery(filePath))
		data, err = downloadWithRetry(ctx, log, filePath)
	} else {
		baseName = filepath.Base(filePath)
		data, err = os.ReadFile(filePath)
	}
	if err != nil {
		return nil, pipelineerr.NewAcquisitionError(filePath, err)
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, pipelineerr.NewAcquisitionError(filePath, fmt.Errorf("create temp dir: %w", err))
	}

	if baseName == "" || baseName == "." || baseName == "/" {
		baseName = "input"
	}
	localPath := filepath.Join(tempDir, baseName)
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return nil, pipelineerr.NewAcquisitionError(filePath, fmt.Errorf("write temp file: %w", err))
	}

	ext := strings.ToLower(filepath.Ext(baseName))
	detected := mimetype.Detect(data)
	compound := ext == ".pdf" && (detected.Is("application/x-ole-storage") || looksLikeCompoundBinary(data))

	if compound {
		log.Info("detected compound-binary office file masquerading as pdf", "path", filePath)
	}

	log.Debug("acquired file", "path", filePath, "extension", ext, "detected_mime", detected.String(), "bytes", len(data))

	return &Acquired{
		Extension:              ext,
		LocalPath:              localPath,
		IsCompoundBinaryOffice: compound,
	}, nil
}

func looksLikeCompoundBinary(data []byte) bool {
	if len(data) < len(compoundBinarySignature) {
		return false
	}
	for i, b := range compoundBinarySignature {
		if data[i] != b {
			return false
		}
	}
	return true
}

func isRemoteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func stripQuery(u string) string {
	if idx := strings.IndexByte(u, '?'); idx >= 0 {
		return u[:idx]
	}
	return u
}

func downloadWithRetry(ctx context.Context, log *logging.Logger, url string) ([]byte, error) {
	client := &http.Client{Timeout: downloadTimeout}
	var body []byte

	err := retry.Run(ctx, log, "download:"+url, maxDownloadRetries, func(ctx context.Context, attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("http %d: %s", resp.StatusCode, resp.Status)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	return body, err
}
