// Command zerox converts a document into page-structured Markdown, and
// optionally schema-conforming JSON, from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/adverant/zerox"
	"github.com/adverant/zerox/internal/config"
	"github.com/adverant/zerox/internal/pipelineerr"
)

func main() {
	os.Exit(run())
}

func run() int {
	defaults := config.LoadCLIDefaults()

	filePath := flag.String("file", "", "local path or http(s) URL of the document to process")
	apiKey := flag.String("api-key", defaults.APIKey, "credentials API key")
	model := flag.String("model", "", "vision model name (default: gpt-4o)")
	provider := flag.String("provider", "OPENAI", "model provider: OPENAI|AZURE|GOOGLE|BEDROCK")
	outputDir := flag.String("output-dir", "", "directory to write the resulting Markdown file to")
	tempDir := flag.String("temp-dir", defaults.TempDir, "scratch directory for intermediate files")
	concurrency := flag.Int("concurrency", defaults.Concurrency, "max concurrent page operations")
	maxRetries := flag.Int("max-retries", defaults.MaxRetries, "max retry attempts per page operation")
	maintainFormat := flag.Bool("maintain-format", false, "process pages sequentially, carrying prior page's formatting as context")
	extractOnly := flag.Bool("extract-only", false, "skip Markdown output, run schema extraction directly against page images")
	directImage := flag.Bool("direct-image-extraction", false, "run schema extraction against page images instead of OCR text")
	hybrid := flag.Bool("hybrid-extraction", false, "run schema extraction against both OCR text and page images")
	schemaPath := flag.String("schema-file", "", "path to a JSON Schema file for extraction")
	extractPerPage := flag.String("extract-per-page", "", "comma-separated top-level schema property names to extract per-page")
	prompt := flag.String("prompt", "", "override the default OCR system prompt")
	noCleanup := flag.Bool("no-cleanup", false, "keep the scratch directory after the run")
	logprobs := flag.Bool("logprobs", false, "request per-token log probabilities where the provider supports them")
	jsonOut := flag.Bool("json", false, "print the full result as JSON instead of a summary")

	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "zerox: -file is required")
		return 2
	}

	args := zerox.Args{
		FilePath:               *filePath,
		Credentials:            zerox.Credentials{APIKey: *apiKey},
		Model:                  *model,
		ModelProvider:          zerox.ModelProvider(strings.ToUpper(*provider)),
		OutputDir:              *outputDir,
		TempDir:                *tempDir,
		Concurrency:            *concurrency,
		MaxRetries:             *maxRetries,
		MaintainFormat:         *maintainFormat,
		ExtractOnly:            *extractOnly,
		DirectImageExtraction:  *directImage,
		EnableHybridExtraction: *hybrid,
		Prompt:                 *prompt,
		ReturnLogprobs:         *logprobs,
	}

	if *noCleanup {
		cleanup := false
		args.Cleanup = &cleanup
	}

	if *extractPerPage != "" {
		args.ExtractPerPage = strings.Split(*extractPerPage, ",")
	}

	if *schemaPath != "" {
		schema, err := loadSchema(*schemaPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "zerox: %v\n", err)
			return 2
		}
		args.Schema = schema
	}

	result, err := zerox.Zerox(context.Background(), args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zerox: %v\n", err)
		var pe *pipelineerr.PipelineError
		if errors.As(err, &pe) && pe.Kind == pipelineerr.KindConfig {
			return 2
		}
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "zerox: encoding result: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Printf("processed %s: %d page(s), %d successful, %d failed, %d ms\n",
		result.FileName, result.Summary.TotalPages,
		summaryOr(result.Summary.OCR).Successful, summaryOr(result.Summary.OCR).Failed,
		result.CompletionTimeMs)
	return 0
}

func summaryOr(s *zerox.StageSummary) zerox.StageSummary {
	if s == nil {
		return zerox.StageSummary{}
	}
	return *s
}

func loadSchema(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing schema file: %w", err)
	}
	return schema, nil
}
