// Package extraction implements the schema-driven Extraction Driver: it
// builds per-mode inputs (text/image/hybrid), dispatches per-page and
// full-document tasks concurrently under one shared budget, and merges
// their results into the final `extracted` object.
package extraction

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/adverant/zerox/internal/completion"
	"github.com/adverant/zerox/internal/logging"
	"github.com/adverant/zerox/internal/modelabstraction"
	"github.com/adverant/zerox/internal/pipelineerr"
	"github.com/adverant/zerox/internal/retry"
)

// PageValue wraps one per-page property value with its source page number.
type PageValue struct {
	Page  int         `json:"page"`
	Value interface{} `json:"value"`
}

// Options configures one Extraction Driver run.
type Options struct {
	Concurrency int
	MaxRetries  int
	Prompt      string
	LLMParams   map[string]interface{}
	Logprobs    bool
}

// LogprobEntry carries per-token log probabilities for one extraction task.
// Page is nil for the full-document task.
type LogprobEntry struct {
	Page  *int
	Value []modelabstraction.LogprobToken
}

// Result is the merged extraction output.
type Result struct {
	Extracted map[string]interface{}
	Logprobs  []LogprobEntry
	Summary   struct {
		Successful int
		Failed     int
	}
}

// BuildPerPageInput constructs the ExtractionInput for one page according
// to the active mode, per the §4.10 mode table.
func BuildPerPageInput(pageContent string, imagePath string, directImageExtraction, hybrid bool) (modelabstraction.ExtractionInput, error) {
	switch {
	case hybrid:
		buf, err := os.ReadFile(imagePath)
		if err != nil {
			return modelabstraction.ExtractionInput{}, err
		}
		return modelabstraction.ExtractionInput{Kind: modelabstraction.ExtractionInputHybrid, Text: pageContent, ImageBuffers: [][]byte{buf}}, nil
	case directImageExtraction:
		buf, err := os.ReadFile(imagePath)
		if err != nil {
			return modelabstraction.ExtractionInput{}, err
		}
		return modelabstraction.ExtractionInput{Kind: modelabstraction.ExtractionInputImages, ImageBuffers: [][]byte{buf}}, nil
	default:
		return modelabstraction.ExtractionInput{Kind: modelabstraction.ExtractionInputText, Text: pageContent}, nil
	}
}

// BuildFullDocInput constructs the full-document ExtractionInput by
// concatenating per-page content or collecting all image buffers.
func BuildFullDocInput(pageContents []string, imagePaths []string, directImageExtraction, hybrid bool) (modelabstraction.ExtractionInput, error) {
	concatenated := concatPages(pageContents)

	switch {
	case hybrid:
		buffers, err := readAll(imagePaths)
		if err != nil {
			return modelabstraction.ExtractionInput{}, err
		}
		return modelabstraction.ExtractionInput{Kind: modelabstraction.ExtractionInputHybrid, Text: concatenated, ImageBuffers: buffers}, nil
	case directImageExtraction:
		buffers, err := readAll(imagePaths)
		if err != nil {
			return modelabstraction.ExtractionInput{}, err
		}
		return modelabstraction.ExtractionInput{Kind: modelabstraction.ExtractionInputImages, ImageBuffers: buffers}, nil
	default:
		return modelabstraction.ExtractionInput{Kind: modelabstraction.ExtractionInputText, Text: concatenated}, nil
	}
}

func concatPages(pageContents []string) string {
	out := ""
	for i, c := range pageContents {
		if i > 0 {
			out += "\n<hr><hr>\n"
		}
		out += c
	}
	return out
}

func readAll(paths []string) ([][]byte, error) {
	buffers := make([][]byte, 0, len(paths))
	for _, p := range paths {
		buf, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		buffers = append(buffers, buf)
	}
	return buffers, nil
}

// Run dispatches per-page tasks (against perPageSchema, if non-nil) and the
// optional full-document task (against fullDocSchema, if non-nil) under one
// shared concurrency budget, then merges results into the final object.
func Run(
	ctx context.Context,
	log *logging.Logger,
	provider modelabstraction.Provider,
	perPageInputs []modelabstraction.ExtractionInput,
	fullDocInput *modelabstraction.ExtractionInput,
	perPageSchema, fullDocSchema map[string]interface{},
	opts Options,
) (*Result, error) {
	result := &Result{Extracted: map[string]interface{}{}}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	perPageValues := map[string][]PageValue{}

	if perPageSchema != nil {
		isObject := true
		for i, input := range perPageInputs {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(pageNum int, input modelabstraction.ExtractionInput) {
				defer wg.Done()
				defer sem.Release(1)

				obj, logprobs, usageErr := callExtraction(ctx, log, provider, input, perPageSchema, opts, isObject)
				mu.Lock()
				defer mu.Unlock()
				if usageErr != nil {
					if firstErr == nil {
						firstErr = usageErr
					}
					result.Summary.Failed++
					return
				}
				result.Summary.Successful++
				for key, value := range obj {
					if value == nil {
						continue
					}
					perPageValues[key] = append(perPageValues[key], PageValue{Page: pageNum, Value: value})
				}
				if len(logprobs) > 0 {
					page := pageNum
					result.Logprobs = append(result.Logprobs, LogprobEntry{Page: &page, Value: logprobs})
				}
			}(i+1, input)
		}
	}

	var fullDocObj map[string]interface{}
	var fullDocErr error
	if fullDocSchema != nil && fullDocInput != nil {
		if err := sem.Acquire(ctx, 1); err == nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				obj, logprobs, err := callExtraction(ctx, log, provider, *fullDocInput, fullDocSchema, opts, true)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					fullDocErr = err
					result.Summary.Failed++
					return
				}
				fullDocObj = obj
				result.Summary.Successful++
				if len(logprobs) > 0 {
					result.Logprobs = append(result.Logprobs, LogprobEntry{Page: nil, Value: logprobs})
				}
			}()
		}
	}

	wg.Wait()

	if firstErr != nil {
		return result, firstErr
	}
	if fullDocErr != nil {
		return result, fullDocErr
	}

	for key, values := range perPageValues {
		result.Extracted[key] = values
	}
	for key, value := range fullDocObj {
		result.Extracted[key] = value
	}

	return result, nil
}

func callExtraction(ctx context.Context, log *logging.Logger, provider modelabstraction.Provider, input modelabstraction.ExtractionInput, schema map[string]interface{}, opts Options, isObjectSchema bool) (map[string]interface{}, []modelabstraction.LogprobToken, error) {
	var obj map[string]interface{}
	var logprobs []modelabstraction.LogprobToken
	err := retry.Run(ctx, log, "extraction:task", opts.MaxRetries, func(ctx context.Context, attempt int) error {
		_, resp, err := provider.GetCompletion(ctx, modelabstraction.ModeExtraction, nil, &modelabstraction.ExtractionArgs{
			Input:     input,
			Prompt:    opts.Prompt,
			Schema:    schema,
			LLMParams: opts.LLMParams,
			Logprobs:  opts.Logprobs,
		})
		if err != nil {
			return err
		}
		parsed, err := completion.NormalizeExtraction(resp.RawJSON, isObjectSchema)
		if err != nil {
			return err
		}
		obj = parsed
		logprobs = resp.Logprobs
		return nil
	})
	if err != nil {
		return nil, nil, pipelineerr.NewExtractionError("task", err)
	}
	return obj, logprobs, nil
}
