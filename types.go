// Package zerox converts arbitrary documents into page-structured Markdown
// and, optionally, schema-conforming JSON, via a vision LLM pipeline:
// acquire -> normalize -> rasterize -> clean -> OCR -> (optionally) extract.
package zerox

import (
	"context"

	"github.com/adverant/zerox/internal/modelabstraction"
)

// PageStatus is the terminal state of one page's OCR outcome.
type PageStatus string

const (
	PageSuccess PageStatus = "SUCCESS"
	PageError   PageStatus = "ERROR"
)

// Page is one rasterized image's (or one spreadsheet sheet's) OCR outcome.
// Invariant: Status == PageSuccess implies Error == "";
// Status == PageError implies Content == "".
type Page struct {
	PageNumber    int        `json:"pageNumber"`
	Content       string     `json:"content"`
	ContentLength int        `json:"contentLength"`
	Status        PageStatus `json:"status"`
	Error         string     `json:"error,omitempty"`
}

// LogprobPage carries per-token log probabilities for one page, or for the
// full document when Page is nil.
type LogprobPage struct {
	Page  *int                            `json:"page"`
	Value []modelabstraction.LogprobToken `json:"value"`
}

// Logprobs groups OCR- and extraction-phase log-probability pages.
type Logprobs struct {
	OCR       []LogprobPage `json:"ocr,omitempty"`
	Extracted []LogprobPage `json:"extracted,omitempty"`
}

// StageSummary reports partial-success counts for one pipeline stage.
type StageSummary struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Summary reports aggregate outcome counts across stages.
type Summary struct {
	TotalPages int           `json:"totalPages"`
	OCR        *StageSummary `json:"ocr,omitempty"`
	Extracted  *StageSummary `json:"extracted,omitempty"`
}

// PipelineResult is the return value of Zerox.
type PipelineResult struct {
	CompletionTimeMs int64                  `json:"completionTime_ms"`
	FileName         string                 `json:"fileName"`
	InputTokens      int                    `json:"inputTokens"`
	OutputTokens     int                    `json:"outputTokens"`
	Pages            []Page                 `json:"pages"`
	Extracted        map[string]interface{} `json:"extracted,omitempty"`
	Logprobs         *Logprobs              `json:"logprobs,omitempty"`
	Summary          Summary                `json:"summary"`
}

// Credentials is the tagged union of supported credential shapes, re-exported
// from the model abstraction layer since it is part of the public surface.
type Credentials = modelabstraction.Credentials

// ModelProvider selects one of the four supported provider families.
type ModelProvider = modelabstraction.ProviderName

const (
	ProviderOpenAI  = modelabstraction.ProviderOpenAI
	ProviderAzure   = modelabstraction.ProviderAzure
	ProviderGoogle  = modelabstraction.ProviderGoogle
	ProviderBedrock = modelabstraction.ProviderBedrock
)

// ErrorMode controls how the OCR Driver reacts to a page exhausting its
// retry budget.
type ErrorMode string

const (
	ErrorModeThrow  ErrorMode = "THROW"
	ErrorModeIgnore ErrorMode = "IGNORE"
)

// CustomModelFunc is the caller-supplied OCR escape hatch: it replaces the
// Model Abstraction call in OCR mode but still goes through the Retry
// Runner and Completion Processor.
type CustomModelFunc func(ctx context.Context, buffers [][]byte, maintainFormat bool, priorPage string) (string, modelabstraction.TokenUsage, error)
