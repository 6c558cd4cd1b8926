package modelabstraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adverant/zerox/internal/logging"
	"github.com/adverant/zerox/internal/pipelineerr"
)

// Family distinguishes the three provider families served by HTTPAdapter,
// which share one request/response envelope and differ only in endpoint
// shaping, auth headers and parameter casing.
type Family string

const (
	FamilyAzure    Family = "AZURE"
	FamilyGoogle   Family = "GOOGLE"
	FamilyBedrock  Family = "BEDROCK"
)

// HTTPAdapter implements Provider against a raw HTTP chat/completion API,
// for the three provider families with no ready-made Go SDK in this
// module's dependency set.
type HTTPAdapter struct {
	family     Family
	model      string
	creds      Credentials
	httpClient *http.Client
	logger     *logging.Logger

	// warnedThinkingLevel is set once Google Vertex has rejected a
	// thinkingLevel parameter, so the warning is emitted only the first time.
	warnedThinkingLevel bool
}

// NewHTTPAdapter constructs an adapter for the given family and model.
func NewHTTPAdapter(family Family, model string, creds Credentials, logger *logging.Logger) *HTTPAdapter {
	return &HTTPAdapter{
		family:     family,
		model:      model,
		creds:      creds,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logger,
	}
}

type chatRequest struct {
	Model       string                   `json:"model"`
	System      string                   `json:"system"`
	Messages    []chatMessage            `json:"messages"`
	Params      map[string]interface{}   `json:"params,omitempty"`
	JSONSchema  map[string]interface{}   `json:"jsonSchema,omitempty"`
	Logprobs    bool                     `json:"logprobs,omitempty"`
}

type chatMessage struct {
	Role    string       `json:"role"`
	Content []chatPart   `json:"content"`
}

type chatPart struct {
	Type     string `json:"type"` // "image" | "text"
	ImageB64 string `json:"imageBase64,omitempty"`
	Text     string `json:"text,omitempty"`
}

type chatResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Content      string         `json:"content"`
		InputTokens  int            `json:"inputTokens"`
		OutputTokens int            `json:"outputTokens"`
		Logprobs     []logprobEntry `json:"logprobs,omitempty"`
	} `json:"data"`
	Message string `json:"message"`
}

type logprobEntry struct {
	Token   string  `json:"token"`
	Logprob float64 `json:"logprob"`
}

// GetCompletion implements Provider.
func (a *HTTPAdapter) GetCompletion(ctx context.Context, mode Mode, ocrArgs *OCRArgs, extractionArgs *ExtractionArgs) (*CompletionResponse, *ExtractionResponse, error) {
	switch mode {
	case ModeOCR:
		resp, err := a.ocr(ctx, ocrArgs)
		return resp, nil, err
	case ModeExtraction:
		resp, err := a.extraction(ctx, extractionArgs)
		return nil, resp, err
	default:
		return nil, nil, fmt.Errorf("modelabstraction: unknown mode %q", mode)
	}
}

func (a *HTTPAdapter) ocr(ctx context.Context, args *OCRArgs) (*CompletionResponse, error) {
	systemPrompt := args.Prompt
	if systemPrompt == "" {
		systemPrompt = defaultOCRSystemPrompt
	}

	var parts []chatPart
	for _, buf := range args.Buffers {
		parts = append(parts, chatPart{Type: "image", ImageB64: base64.StdEncoding.EncodeToString(buf)})
	}
	if args.MaintainFormat && args.PriorPage != "" {
		parts = append(parts, chatPart{Type: "text", Text: "Previous page for consistency:\n" + args.PriorPage})
	}

	req := a.buildRequest(systemPrompt, parts, args.LLMParams, nil, args.Logprobs)
	resp, err := a.send(ctx, req)
	if err != nil {
		return nil, pipelineerr.NewOcrError(0, err)
	}

	return &CompletionResponse{
		Content:  resp.Data.Content,
		Usage:    TokenUsage{InputTokens: resp.Data.InputTokens, OutputTokens: resp.Data.OutputTokens},
		Logprobs: convertLogprobs(resp.Data.Logprobs),
	}, nil
}

func (a *HTTPAdapter) extraction(ctx context.Context, args *ExtractionArgs) (*ExtractionResponse, error) {
	systemPrompt := args.Prompt
	if systemPrompt == "" {
		systemPrompt = defaultExtractionSystemPrompt
	}

	var parts []chatPart
	for _, buf := range args.Input.ImageBuffers {
		parts = append(parts, chatPart{Type: "image", ImageB64: base64.StdEncoding.EncodeToString(buf)})
	}
	if args.Input.Text != "" {
		parts = append(parts, chatPart{Type: "text", Text: args.Input.Text})
	}

	req := a.buildRequest(systemPrompt, parts, args.LLMParams, args.Schema, args.Logprobs)
	resp, err := a.send(ctx, req)
	if err != nil {
		return nil, pipelineerr.NewExtractionError(string(a.family)+" completion", err)
	}

	return &ExtractionResponse{
		RawJSON:  resp.Data.Content,
		Usage:    TokenUsage{InputTokens: resp.Data.InputTokens, OutputTokens: resp.Data.OutputTokens},
		Logprobs: convertLogprobs(resp.Data.Logprobs),
	}, nil
}

func (a *HTTPAdapter) buildRequest(systemPrompt string, parts []chatPart, llmParams map[string]interface{}, schema map[string]interface{}, logprobs bool) *chatRequest {
	params := a.translateParams(llmParams)

	if a.family == FamilyGoogle && !strings.HasPrefix(a.model, "gemini-3") {
		if _, has := params["thinking_level"]; has {
			if !a.warnedThinkingLevel {
				a.logger.Warn("thinkingLevel is not supported on this Google Vertex deployment; dropping", "model", a.model)
				a.warnedThinkingLevel = true
			}
			delete(params, "thinking_level")
		}
	}

	return &chatRequest{
		Model:      a.model,
		System:     systemPrompt,
		Messages:   []chatMessage{{Role: "user", Content: parts}},
		Params:     params,
		JSONSchema: schema,
		Logprobs:   logprobs,
	}
}

// translateParams converts the canonical camelCase llmParams into the
// casing each family expects on the wire (snake_case for Google, camelCase
// for Azure/Bedrock), and maps Gemini-3-family knobs to provider constants.
func (a *HTTPAdapter) translateParams(llmParams map[string]interface{}) map[string]interface{} {
	if llmParams == nil {
		return map[string]interface{}{}
	}

	if a.family == FamilyGoogle {
		snake := ToSnakeCase(llmParams)
		if strings.HasPrefix(a.model, "gemini-3") {
			mapGemini3Knobs(snake)
		}
		return snake
	}
	return ToCamelCase(llmParams)
}

func mapGemini3Knobs(params map[string]interface{}) {
	if level, ok := params["thinking_level"].(string); ok {
		switch level {
		case "low":
			params["thinking_level"] = "THINKING_LEVEL_LOW"
		case "high":
			params["thinking_level"] = "THINKING_LEVEL_HIGH"
		}
	}
	if res, ok := params["media_resolution"].(string); ok {
		switch res {
		case "low":
			params["media_resolution"] = "MEDIA_RESOLUTION_LOW"
		case "medium":
			params["media_resolution"] = "MEDIA_RESOLUTION_MEDIUM"
		case "high":
			params["media_resolution"] = "MEDIA_RESOLUTION_HIGH"
		}
	}
}

func (a *HTTPAdapter) send(ctx context.Context, req *chatRequest) (*chatResponse, error) {
	endpoint, headers := a.endpointAndHeaders()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", fmt.Sprintf("zerox-%d", time.Now().UnixNano()))
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", a.family, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", a.family, resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("%s operation failed: %s", a.family, parsed.Message)
	}
	return &parsed, nil
}

func (a *HTTPAdapter) endpointAndHeaders() (string, map[string]string) {
	headers := map[string]string{}
	switch a.family {
	case FamilyAzure:
		headers["api-key"] = a.creds.APIKey
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions", a.creds.Endpoint, a.model), headers
	case FamilyGoogle:
		if a.creds.ServiceAccountJSON != "" {
			headers["Authorization"] = "Bearer " + a.creds.ServiceAccountJSON
			return fmt.Sprintf("%s/v1/projects/-/locations/%s/publishers/google/models/%s:generateContent",
				a.creds.Endpoint, a.creds.Location, a.model), headers
		}
		headers["x-goog-api-key"] = a.creds.APIKey
		return fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.creds.Endpoint, a.model), headers
	case FamilyBedrock:
		headers["X-Amz-Access-Key"] = a.creds.AWSAccessKeyID
		headers["X-Amz-Region"] = a.creds.AWSRegion
		if a.creds.AWSSessionToken != "" {
			headers["X-Amz-Security-Token"] = a.creds.AWSSessionToken
		}
		return fmt.Sprintf("%s/model/%s/invoke", a.creds.Endpoint, a.model), headers
	default:
		return a.creds.Endpoint, headers
	}
}

func convertLogprobs(entries []logprobEntry) []LogprobToken {
	if len(entries) == 0 {
		return nil
	}
	out := make([]LogprobToken, len(entries))
	for i, e := range entries {
		out[i] = LogprobToken{Token: e.Token, Logprob: e.Logprob}
	}
	return out
}
