// Package ocrdriver implements the concurrent-or-sequential per-page OCR
// loop, including the maintainFormat format-carryover invariant and the
// errorMode-driven failure policy.
package ocrdriver

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/adverant/zerox/internal/completion"
	"github.com/adverant/zerox/internal/imageutil"
	"github.com/adverant/zerox/internal/logging"
	"github.com/adverant/zerox/internal/modelabstraction"
	"github.com/adverant/zerox/internal/pipelineerr"
	"github.com/adverant/zerox/internal/retry"
	"github.com/adverant/zerox/internal/tesseractpool"
)

// ErrorMode controls what happens when a page exhausts its retry budget.
type ErrorMode string

const (
	ErrorModeThrow  ErrorMode = "THROW"
	ErrorModeIgnore ErrorMode = "IGNORE"
)

// PageResult is one page's OCR outcome.
type PageResult struct {
	PageNumber    int
	Content       string
	ContentLength int
	Status        string // "SUCCESS" | "ERROR"
	Error         string
	InputTokens   int
	OutputTokens  int
	Logprobs      []modelabstraction.LogprobToken
}

// Summary reports aggregate OCR outcome counts.
type Summary struct {
	Successful int
	Failed     int
}

// Options configures one OCR Driver run.
type Options struct {
	MaintainFormat     bool
	Concurrency        int
	MaxRetries         int
	ErrorMode          ErrorMode
	Prompt             string
	LLMParams          map[string]interface{}
	Logprobs           bool
	CorrectOrientation bool
	TrimEdges          bool
	TesseractPool      *tesseractpool.Pool
	CustomModelFunc    func(ctx context.Context, buffers [][]byte, maintainFormat bool, priorPage string) (string, modelabstraction.TokenUsage, error)
}

// Run executes the OCR loop over imagePaths, in page order, writing results
// into a pre-allocated slice by index so order is deterministic regardless
// of completion order.
func Run(ctx context.Context, log *logging.Logger, provider modelabstraction.Provider, imagePaths []string, opts Options) ([]PageResult, Summary, error) {
	results := make([]PageResult, len(imagePaths))

	if opts.MaintainFormat {
		return runSequential(ctx, log, provider, imagePaths, opts, results)
	}
	return runConcurrent(ctx, log, provider, imagePaths, opts, results)
}

func runSequential(ctx context.Context, log *logging.Logger, provider modelabstraction.Provider, imagePaths []string, opts Options, results []PageResult) ([]PageResult, Summary, error) {
	var summary Summary
	var priorPage string

	for i, path := range imagePaths {
		pageNum := i + 1
		result, err := processPage(ctx, log, provider, path, pageNum, priorPage, opts)
		if err != nil {
			if opts.ErrorMode == ErrorModeThrow {
				return results, summary, pipelineerr.NewOcrError(pageNum, err)
			}
			results[i] = PageResult{PageNumber: pageNum, Status: "ERROR", Error: err.Error()}
			summary.Failed++
			// maintainFormat halts further OCR on error but extraction still
			// runs over completed pages; drop the unstarted trailing pages
			// rather than returning zero-value entries for them.
			results = results[:i+1]
			break
		}
		results[i] = *result
		summary.Successful++
		priorPage = result.Content
	}

	return results, summary, nil
}

func runConcurrent(ctx context.Context, log *logging.Logger, provider modelabstraction.Provider, imagePaths []string, opts Options, results []PageResult) ([]PageResult, Summary, error) {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var wg sync.WaitGroup
	var successful, failed int64
	var firstFatal error
	var fatalMu sync.Mutex

	for i, path := range imagePaths {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			defer sem.Release(1)

			pageNum := idx + 1
			result, err := processPage(ctx, log, provider, path, pageNum, "", opts)
			if err != nil {
				if opts.ErrorMode == ErrorModeThrow {
					fatalMu.Lock()
					if firstFatal == nil {
						firstFatal = pipelineerr.NewOcrError(pageNum, err)
					}
					fatalMu.Unlock()
					return
				}
				results[idx] = PageResult{PageNumber: pageNum, Status: "ERROR", Error: err.Error()}
				atomic.AddInt64(&failed, 1)
				return
			}
			results[idx] = *result
			atomic.AddInt64(&successful, 1)
		}(i, path)
	}
	wg.Wait()

	summary := Summary{Successful: int(successful), Failed: int(failed)}
	if firstFatal != nil {
		return results, summary, firstFatal
	}
	return results, summary, nil
}

func processPage(ctx context.Context, log *logging.Logger, provider modelabstraction.Provider, path string, pageNum int, priorPage string, opts Options) (*PageResult, error) {
	raw, err := readAndClean(path, opts)
	if err != nil {
		return nil, err
	}

	var content string
	var usage modelabstraction.TokenUsage
	var logprobs []modelabstraction.LogprobToken

	tag := fmt.Sprintf("ocr:page:%d", pageNum)
	err = retry.Run(ctx, log, tag, opts.MaxRetries, func(ctx context.Context, attempt int) error {
		if opts.CustomModelFunc != nil {
			c, u, err := opts.CustomModelFunc(ctx, raw, opts.MaintainFormat, priorPage)
			if err != nil {
				return err
			}
			content, usage = c, u
			return nil
		}

		resp, _, err := provider.GetCompletion(ctx, modelabstraction.ModeOCR, &modelabstraction.OCRArgs{
			Buffers:        raw,
			MaintainFormat: opts.MaintainFormat,
			PriorPage:      priorPage,
			Prompt:         opts.Prompt,
			LLMParams:      opts.LLMParams,
			Logprobs:       opts.Logprobs,
		}, nil)
		if err != nil {
			return err
		}
		content = resp.Content
		usage = resp.Usage
		logprobs = resp.Logprobs
		return nil
	})
	if err != nil {
		return nil, err
	}

	cleaned, length := completion.NormalizeOCR(content)
	return &PageResult{
		PageNumber:    pageNum,
		Content:       cleaned,
		ContentLength: length,
		Status:        "SUCCESS",
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		Logprobs:      logprobs,
	}, nil
}

func readAndClean(path string, opts Options) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	buffers, err := imageutil.Cleanup(data, imageutil.Options{
		CorrectOrientation: opts.CorrectOrientation,
		TrimEdges:          opts.TrimEdges,
		Pool:               opts.TesseractPool,
	})
	if err != nil {
		return nil, err
	}
	return buffers, nil
}
