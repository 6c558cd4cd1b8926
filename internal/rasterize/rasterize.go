// Package rasterize converts PDF/office/HEIC/image inputs into a
// deterministic, ascending-ordered list of PNG page images.
package rasterize

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/adverant/zerox/internal/imageutil"
	"github.com/adverant/zerox/internal/logging"
	"github.com/adverant/zerox/internal/pipelineerr"
)

// PageSelection mirrors the zerox `pagesToConvertAsImages` argument:
// nil/AllPages means "every page"; a single int selects one page;
// a slice selects an ascending, explicit set of 1-based page numbers.
type PageSelection struct {
	All      bool
	Single   int
	Indices  []int
}

// AllPages is the PageSelection that converts every page.
var AllPages = PageSelection{All: true}

// SinglePage selects one 1-based page index.
func SinglePage(page int) PageSelection { return PageSelection{Single: page} }

// Pages selects an explicit ascending set of 1-based page indices.
func Pages(indices []int) PageSelection { return PageSelection{Indices: indices} }

// Options parameterizes rendering.
type Options struct {
	PagesToConvertAsImages PageSelection
	ImageDensity           int // DPI
	ImageHeight             int // pixels, aspect-preserving; 0 = unset
	MaxImageSize            int64 // bytes; 0 = no recompression
	TempDir                 string
}

const defaultDPI = 150

// Rasterize dispatches on extension and returns an ascending-ordered list
// of page image paths. PNG/JPEG inputs are returned as localPath itself and
// HEIC inputs as one converted JPEG; PDF and office inputs yield PNG pages
// under opts.TempDir.
func Rasterize(ctx context.Context, log *logging.Logger, extension, localPath string, opts Options) ([]string, error) {
	switch extension {
	case ".png", ".jpg", ".jpeg":
		return []string{localPath}, nil
	case ".heic", ".heif":
		jpegPath, err := convertHEICToJPEG(ctx, localPath, opts.TempDir)
		if err != nil {
			return nil, pipelineerr.NewConversionError("heic", "jpeg", err)
		}
		return []string{jpegPath}, nil
	default:
		pdfPath := localPath
		if extension != ".pdf" {
			converted, err := convertToPDF(ctx, localPath, opts.TempDir)
			if err != nil {
				return nil, pipelineerr.NewConversionError(extension, "pdf", err)
			}
			pdfPath = converted
		}
		paths, err := rasterizePDF(ctx, log, pdfPath, opts)
		if err != nil {
			return nil, err
		}
		if opts.MaxImageSize > 0 {
			return compressAll(log, paths, opts.MaxImageSize)
		}
		return paths, nil
	}
}

func rasterizePDF(ctx context.Context, log *logging.Logger, pdfPath string, opts Options) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, pipelineerr.NewRasterizationError(pdfPath, 0, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := resolvePageNumbers(opts.PagesToConvertAsImages, total)

	density := opts.ImageDensity
	if density <= 0 {
		density = defaultDPI
	}

	paths := make([]string, 0, len(pages))
	for _, pageNum := range pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum-1, float64(density))
		if err != nil {
			return nil, pipelineerr.NewRasterizationError(pdfPath, pageNum, err)
		}

		if opts.ImageHeight > 0 {
			img = imageutil.ResizeToHeight(img, opts.ImageHeight)
		}

		outPath := filepath.Join(opts.TempDir, fmt.Sprintf("page_%04d.png", pageNum))
		if err := imageutil.EncodePNG(outPath, img); err != nil {
			return nil, pipelineerr.NewRasterizationError(pdfPath, pageNum, err)
		}
		paths = append(paths, outPath)

		log.Debug("rasterized page", "page", pageNum, "path", outPath)
	}

	return paths, nil
}

// resolvePageNumbers expands a PageSelection into an ascending list of
// 1-based page numbers, silently dropping any entries out of [1, total].
func resolvePageNumbers(sel PageSelection, total int) []int {
	if sel.Single > 0 {
		if sel.Single >= 1 && sel.Single <= total {
			return []int{sel.Single}
		}
		return nil
	}
	if len(sel.Indices) > 0 {
		out := make([]int, 0, len(sel.Indices))
		for _, p := range sel.Indices {
			if p >= 1 && p <= total {
				out = append(out, p)
			}
		}
		sort.Ints(out)
		return out
	}
	out := make([]int, total)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func compressAll(log *logging.Logger, paths []string, maxBytes int64) ([]string, error) {
	compressed := make([]string, len(paths))
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, pipelineerr.NewRasterizationError(p, i+1, err)
		}
		if info.Size() <= maxBytes {
			compressed[i] = p
			continue
		}
		outPath := strings.TrimSuffix(p, filepath.Ext(p)) + "_compressed.png"
		if err := imageutil.CompressToSize(p, outPath, maxBytes); err != nil {
			return nil, pipelineerr.NewRasterizationError(p, i+1, err)
		}
		log.Debug("recompressed oversized page image", "original", p, "compressed", outPath)
		compressed[i] = outPath
	}
	return compressed, nil
}

func convertToPDF(ctx context.Context, localPath, tempDir string) (string, error) {
	cmd := exec.CommandContext(ctx, "soffice", "--headless", "--convert-to", "pdf", "--outdir", tempDir, localPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("office conversion failed: %w: %s", err, string(out))
	}
	base := strings.TrimSuffix(filepath.Base(localPath), filepath.Ext(localPath))
	return filepath.Join(tempDir, base+".pdf"), nil
}

func convertHEICToJPEG(ctx context.Context, localPath, tempDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(localPath), filepath.Ext(localPath))
	outPath := filepath.Join(tempDir, base+".jpg")
	cmd := exec.CommandContext(ctx, "heif-convert", localPath, outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("heic conversion failed: %w: %s", err, string(out))
	}
	return outPath, nil
}
