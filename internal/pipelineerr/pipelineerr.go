// Package pipelineerr defines the structured error taxonomy shared by every
// pipeline stage, following a factory-function pattern: one constructor per
// abstract error kind, each producing a *PipelineError that wraps its cause.
package pipelineerr

import (
	"fmt"
	"time"
)

// Kind enumerates the abstract error kinds a pipeline run can fail with.
type Kind string

const (
	KindConfig       Kind = "CONFIG_ERROR"
	KindAcquisition  Kind = "ACQUISITION_ERROR"
	KindConversion   Kind = "CONVERSION_ERROR"
	KindRasterize    Kind = "RASTERIZATION_ERROR"
	KindOCR          Kind = "OCR_ERROR"
	KindExtraction   Kind = "EXTRACTION_ERROR"
	KindSchema       Kind = "SCHEMA_ERROR"
)

// PipelineError is the concrete error type for every Kind above.
type PipelineError struct {
	Kind      Kind
	Message   string
	Stage     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match on Kind without comparing the full struct.
func (e *PipelineError) Is(target error) bool {
	other, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func new(kind Kind, stage, msg string, cause error, details map[string]interface{}) *PipelineError {
	return &PipelineError{
		Kind:      kind,
		Message:   msg,
		Stage:     stage,
		Timestamp: time.Now(),
		Details:   details,
		Cause:     cause,
	}
}

// NewConfigError reports invalid or conflicting argument combinations.
func NewConfigError(reason string) *PipelineError {
	return new(KindConfig, "orchestrator", reason, nil, nil)
}

// NewAcquisitionError reports that the input file could not be read or downloaded.
func NewAcquisitionError(path string, cause error) *PipelineError {
	return new(KindAcquisition, "acquisition", fmt.Sprintf("cannot acquire %q", path), cause,
		map[string]interface{}{"path": path})
}

// NewConversionError reports office/PDF/HEIC conversion failure.
func NewConversionError(from, to string, cause error) *PipelineError {
	return new(KindConversion, "rasterize", fmt.Sprintf("conversion from %s to %s failed", from, to), cause,
		map[string]interface{}{"from": from, "to": to})
}

// NewRasterizationError reports PDF-to-image rendering failure.
func NewRasterizationError(path string, page int, cause error) *PipelineError {
	return new(KindRasterize, "rasterize", fmt.Sprintf("rasterizing page %d of %q failed", page, path), cause,
		map[string]interface{}{"path": path, "page": page})
}

// NewOcrError reports a vision-model call that exhausted its retry budget.
func NewOcrError(page int, cause error) *PipelineError {
	return new(KindOCR, "ocrdriver", fmt.Sprintf("ocr failed for page %d", page), cause,
		map[string]interface{}{"page": page})
}

// NewExtractionError reports an extraction call that exhausted retries, or a
// schema/JSON parse failure.
func NewExtractionError(task string, cause error) *PipelineError {
	return new(KindExtraction, "extraction", fmt.Sprintf("extraction failed for %s", task), cause,
		map[string]interface{}{"task": task})
}

// NewSchemaError reports that the supplied schema is not a valid object.
func NewSchemaError(reason string) *PipelineError {
	return new(KindSchema, "schema", reason, nil, nil)
}

// ToMap renders the error for log-event attachment.
func (e *PipelineError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"kind":      string(e.Kind),
		"stage":     e.Stage,
		"message":   e.Message,
		"timestamp": e.Timestamp,
	}
	for k, v := range e.Details {
		result[k] = v
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	return result
}
