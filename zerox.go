package zerox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/adverant/zerox/internal/acquisition"
	"github.com/adverant/zerox/internal/extraction"
	"github.com/adverant/zerox/internal/logging"
	"github.com/adverant/zerox/internal/modelabstraction"
	"github.com/adverant/zerox/internal/ocrdriver"
	"github.com/adverant/zerox/internal/pipelineerr"
	"github.com/adverant/zerox/internal/rasterize"
	"github.com/adverant/zerox/internal/schema"
	"github.com/adverant/zerox/internal/structureddata"
	"github.com/adverant/zerox/internal/tesseractpool"
)

var argsValidator = validator.New()

// Zerox runs the full document pipeline: acquire, normalize, rasterize,
// clean, OCR, and (optionally) extract. It is the sole public entrypoint.
func Zerox(ctx context.Context, args Args) (result *PipelineResult, err error) {
	started := time.Now()

	if err := validateArgs(args); err != nil {
		return nil, err
	}
	args = args.withDefaults()

	runID := uuid.New().String()
	log := logging.NewLogger("zerox").WithRunID(runID)

	root := args.TempDir
	if root == "" {
		root = os.TempDir()
	}
	tempDir := filepath.Join(root, "zerox-"+runID)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, pipelineerr.NewAcquisitionError(args.FilePath, fmt.Errorf("create run temp dir: %w", err))
	}

	cleanup := boolOr(args.Cleanup, true)
	var pool *tesseractpool.Pool
	defer func() {
		// Guaranteed-release block: runs on every exit path.
		if pool != nil {
			if closeErr := pool.Close(); closeErr != nil {
				log.Warn("error closing tesseract pool", "error", closeErr)
			}
		}
		if cleanup {
			if rmErr := os.RemoveAll(tempDir); rmErr != nil {
				log.Warn("error removing temp dir", "error", rmErr)
			}
		}
	}()

	log.Info("pipeline started", "file", args.FilePath, "model", args.Model, "provider", args.ModelProvider)

	acquired, err := acquisition.Acquire(ctx, log, args.FilePath, tempDir)
	if err != nil {
		return nil, err
	}

	var pages []Page
	var imagePaths []string
	var ocrSummary *StageSummary
	var ocrLogprobs []LogprobPage
	var inputTokens, outputTokens int

	switch {
	case structureddata.IsStructuredDataExtension(acquired.Extension):
		sheetPages, err := structureddata.Read(acquired.LocalPath, acquired.Extension)
		if err != nil {
			return nil, err
		}
		for i, sp := range sheetPages {
			content, length := sp.Content, len([]rune(sp.Content))
			pages = append(pages, Page{PageNumber: i + 1, Content: content, ContentLength: length, Status: PageSuccess})
		}

	default:
		effectiveExt := acquired.Extension
		if acquired.IsCompoundBinaryOffice {
			effectiveExt = ".doc" // force office-conversion path rather than PDF passthrough
		}

		rasterOpts := rasterize.Options{
			PagesToConvertAsImages: toRasterSelection(args.PagesToConvertAsImages),
			ImageDensity:           args.ImageDensity,
			ImageHeight:            args.ImageHeight,
			MaxImageSize:           args.MaxImageSize,
			TempDir:                tempDir,
		}
		imagePaths, err = rasterize.Rasterize(ctx, log, effectiveExt, acquired.LocalPath, rasterOpts)
		if err != nil {
			return nil, err
		}

		if boolOr(args.CorrectOrientation, true) {
			pool = tesseractpool.New(args.MaxTesseractWorkers, len(imagePaths))
		}

		provider := modelabstraction.NewProvider(args.ModelProvider, args.Model, args.Credentials, log)

		ocrResults, summary, err := ocrdriver.Run(ctx, log, provider, imagePaths, ocrdriver.Options{
			MaintainFormat:     args.MaintainFormat,
			Concurrency:        args.Concurrency,
			MaxRetries:         args.MaxRetries,
			ErrorMode:          ocrdriver.ErrorMode(args.ErrorMode),
			Prompt:             args.Prompt,
			LLMParams:          args.LLMParams,
			Logprobs:           args.ReturnLogprobs,
			CorrectOrientation: boolOr(args.CorrectOrientation, true),
			TrimEdges:          boolOr(args.TrimEdges, true),
			TesseractPool:      pool,
			CustomModelFunc:    args.CustomModelFunction,
		})
		if err != nil {
			return nil, err
		}
		ocrSummary = &StageSummary{Successful: summary.Successful, Failed: summary.Failed}

		for _, r := range ocrResults {
			inputTokens += r.InputTokens
			outputTokens += r.OutputTokens
			content, contentLength := r.Content, r.ContentLength
			if args.ExtractOnly {
				content, contentLength = "", 0
			}
			pages = append(pages, Page{
				PageNumber:    r.PageNumber,
				Content:       content,
				ContentLength: contentLength,
				Status:        PageStatus(r.Status),
				Error:         r.Error,
			})
			if len(r.Logprobs) > 0 {
				page := r.PageNumber
				ocrLogprobs = append(ocrLogprobs, LogprobPage{Page: &page, Value: r.Logprobs})
			}
		}
	}

	var extracted map[string]interface{}
	var extractedSummary *StageSummary
	var extractedLogprobs []LogprobPage
	if args.Schema != nil {
		extracted, extractedLogprobs, extractedSummary, err = runExtraction(ctx, log, args, pages, imagePaths)
		if err != nil {
			return nil, err
		}
	}

	var logprobs *Logprobs
	if len(ocrLogprobs) > 0 || len(extractedLogprobs) > 0 {
		logprobs = &Logprobs{OCR: ocrLogprobs, Extracted: extractedLogprobs}
	}

	if args.OutputDir != "" {
		if err := writeMarkdown(args.OutputDir, args.FilePath, pages); err != nil {
			log.Warn("failed to write output markdown", "error", err)
		}
	}

	summary := Summary{TotalPages: len(pages), OCR: ocrSummary, Extracted: extractedSummary}

	return &PipelineResult{
		CompletionTimeMs: time.Since(started).Milliseconds(),
		FileName:         filepath.Base(args.FilePath),
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		Pages:            pages,
		Extracted:        extracted,
		Logprobs:         logprobs,
		Summary:          summary,
	}, nil
}

func runExtraction(ctx context.Context, log *logging.Logger, args Args, pages []Page, imagePaths []string) (map[string]interface{}, []LogprobPage, *StageSummary, error) {
	perPageSchema, fullDocSchema, err := schema.Split(args.Schema, args.ExtractPerPage)
	if err != nil {
		return nil, nil, nil, err
	}

	pageContents := make([]string, len(pages))
	for i, p := range pages {
		pageContents[i] = p.Content
	}

	var perPageInputs []modelabstraction.ExtractionInput
	if perPageSchema != nil {
		perPageInputs = make([]modelabstraction.ExtractionInput, len(pages))
		for i := range pages {
			imgPath := ""
			if i < len(imagePaths) {
				imgPath = imagePaths[i]
			}
			input, err := extraction.BuildPerPageInput(pageContents[i], imgPath, args.DirectImageExtraction, args.EnableHybridExtraction)
			if err != nil {
				return nil, nil, nil, pipelineerr.NewExtractionError("build per-page input", err)
			}
			perPageInputs[i] = input
		}
	}

	var fullDocInputPtr *modelabstraction.ExtractionInput
	if fullDocSchema != nil {
		fullDocInput, err := extraction.BuildFullDocInput(pageContents, imagePaths, args.DirectImageExtraction, args.EnableHybridExtraction)
		if err != nil {
			return nil, nil, nil, pipelineerr.NewExtractionError("build full-doc input", err)
		}
		fullDocInputPtr = &fullDocInput
	}

	creds := args.Credentials
	if args.ExtractionCredentials != nil {
		creds = *args.ExtractionCredentials
	}
	provider := modelabstraction.NewProvider(args.ExtractionModelProvider, args.ExtractionModel, creds, log)

	prompt := args.ExtractionPrompt
	llmParams := args.ExtractionLLMParams

	result, err := extraction.Run(ctx, log, provider, perPageInputs, fullDocInputPtr, perPageSchema, fullDocSchema, extraction.Options{
		Concurrency: args.Concurrency,
		MaxRetries:  args.MaxRetries,
		Prompt:      prompt,
		LLMParams:   llmParams,
		Logprobs:    args.ReturnLogprobs,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	var logprobs []LogprobPage
	for _, e := range result.Logprobs {
		logprobs = append(logprobs, LogprobPage{Page: e.Page, Value: e.Value})
	}

	return result.Extracted, logprobs, &StageSummary{Successful: result.Summary.Successful, Failed: result.Summary.Failed}, nil
}

func toRasterSelection(sel PageSelectionArg) rasterize.PageSelection {
	if sel.Single > 0 {
		return rasterize.SinglePage(sel.Single)
	}
	if len(sel.Indices) > 0 {
		return rasterize.Pages(sel.Indices)
	}
	return rasterize.AllPages
}

var nonWordPattern = regexp.MustCompile(`[^\w]+`)

func sanitizeFileName(filePath string) string {
	base := filepath.Base(filePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	sanitized := nonWordPattern.ReplaceAllString(base, " ")
	sanitized = strings.Join(strings.Fields(sanitized), "_")
	sanitized = strings.ToLower(sanitized)
	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}
	return sanitized
}

func writeMarkdown(outputDir, filePath string, pages []Page) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	var sb strings.Builder
	for i, p := range pages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.Content)
	}
	outPath := filepath.Join(outputDir, sanitizeFileName(filePath)+".md")
	return os.WriteFile(outPath, []byte(sb.String()), 0o644)
}

func validateArgs(args Args) error {
	if err := argsValidator.Struct(struct {
		FilePath string `validate:"required"`
	}{FilePath: args.FilePath}); err != nil {
		return pipelineerr.NewConfigError("filePath is required")
	}
	if emptyCredentials(args.Credentials) {
		return pipelineerr.NewConfigError("credentials must not be empty")
	}
	if args.EnableHybridExtraction && (args.DirectImageExtraction || args.ExtractOnly) {
		return pipelineerr.NewConfigError("enableHybridExtraction cannot be combined with directImageExtraction or extractOnly")
	}
	if (args.EnableHybridExtraction || args.ExtractOnly) && args.Schema == nil {
		return pipelineerr.NewConfigError("hybrid or extract-only extraction requires a schema")
	}
	if args.ExtractOnly && args.MaintainFormat {
		return pipelineerr.NewConfigError("extractOnly cannot be combined with maintainFormat")
	}

	return nil
}
