// Package tesseractpool provides a dynamically sized pool of Tesseract
// workers used exclusively for orientation-and-script detection (OSD) by
// the image-cleanup stage. It never performs full-text OCR — that is the
// vision model's job.
package tesseractpool

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

const minWorkers = 3

// Pool is a lazily-grown, append-only set of Tesseract clients shared
// across all page-cleanup calls for one pipeline run. It is the only
// mutable shared structure in the run and grows monotonically.
type Pool struct {
	mu      sync.Mutex
	workers []*gosseract.Client
	free    chan *gosseract.Client
	max     int
}

// New constructs a pool sized to max(minWorkers, min(maxWorkers, numImages)).
// If maxWorkers <= 0 ("auto"), the cap is numImages.
func New(maxWorkers, numImages int) *Pool {
	cap := maxWorkers
	if cap <= 0 {
		cap = numImages
	}
	if cap < minWorkers {
		cap = minWorkers
	}
	if numImages > 0 && cap > numImages {
		cap = numImages
		if cap < minWorkers {
			cap = minWorkers
		}
	}

	p := &Pool{
		free: make(chan *gosseract.Client, cap),
		max:  cap,
	}
	for i := 0; i < minWorkers && i < cap; i++ {
		p.addWorker()
	}
	return p
}

func (p *Pool) addWorker() *gosseract.Client {
	c := gosseract.NewClient()
	_ = c.SetPageSegMode(gosseract.PSM_OSD_ONLY)
	p.mu.Lock()
	p.workers = append(p.workers, c)
	p.mu.Unlock()
	return c
}

// Acquire returns an idle worker, growing the pool lazily up to max if none
// is immediately available.
func (p *Pool) Acquire() *gosseract.Client {
	select {
	case c := <-p.free:
		return c
	default:
	}

	p.mu.Lock()
	if len(p.workers) < p.max {
		c := gosseract.NewClient()
		_ = c.SetPageSegMode(gosseract.PSM_OSD_ONLY)
		p.workers = append(p.workers, c)
		p.mu.Unlock()
		return c
	}
	p.mu.Unlock()

	return <-p.free
}

// Release returns a worker to the idle set.
func (p *Pool) Release(c *gosseract.Client) {
	select {
	case p.free <- c:
	default:
	}
}

// Close terminates every worker in the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, c := range p.workers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.workers = nil
	return firstErr
}

var osdDegreesPattern = regexp.MustCompile(`(?i)orientation in degrees:\s*(\d+)`)

// DetectRotation runs OSD over imageBytes and returns the detected rotation
// in degrees (one of 0, 90, 180, 270).
func DetectRotation(c *gosseract.Client, imageBytes []byte) (int, error) {
	if err := c.SetImageFromBytes(imageBytes); err != nil {
		return 0, fmt.Errorf("tesseract osd: set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return 0, fmt.Errorf("tesseract osd: %w", err)
	}
	return extractDegrees(text)
}

// extractDegrees parses Tesseract's "Orientation in degrees: N" OSD output
// line, normalizing to 0 for any angle that isn't one of the four recognized
// rotations.
func extractDegrees(osdText string) (int, error) {
	m := osdDegreesPattern.FindStringSubmatch(osdText)
	if m == nil {
		return 0, nil
	}
	degrees, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, nil
	}
	switch degrees {
	case 90, 180, 270:
		return degrees, nil
	default:
		return 0, nil
	}
}
