package modelabstraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/adverant/zerox/internal/pipelineerr"
)

const (
	defaultOCRSystemPrompt        = "Convert the following page image(s) to Markdown, preserving structure."
	defaultExtractionSystemPrompt = "Extract schema data from the following content."
)

// OpenAIAdapter implements Provider against the OpenAI-family chat
// completion API via the official SDK. It also serves OpenAI-compatible
// endpoints through Credentials.Endpoint.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

// NewOpenAIAdapter constructs an adapter for the given model identifier and
// credentials.
func NewOpenAIAdapter(model string, creds Credentials) *OpenAIAdapter {
	var opts []option.RequestOption
	if creds.APIKey != "" {
		opts = append(opts, option.WithAPIKey(creds.APIKey))
	}
	if creds.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(creds.Endpoint))
	}
	return &OpenAIAdapter{client: openai.NewClient(opts...), model: model}
}

// GetCompletion implements Provider.
func (a *OpenAIAdapter) GetCompletion(ctx context.Context, mode Mode, ocrArgs *OCRArgs, extractionArgs *ExtractionArgs) (*CompletionResponse, *ExtractionResponse, error) {
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

func (a *OpenAIAdapter) ocr(ctx context.Context, args *OCRArgs) (*CompletionResponse, error) {
	systemPrompt := args.Prompt
	if systemPrompt == "" {
		systemPrompt = defaultOCRSystemPrompt
	}

	var parts []openai.ChatCompletionContentPartUnionParam
	// Images first, per the message-ordering contract.
	for _, buf := range args.Buffers {
		dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf)
		parts = append(parts, openai.ChatCompletionContentPartUnionParam{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
			},
		})
	}
	// Then the carry-over consistency prompt, if any.
	if args.MaintainFormat && args.PriorPage != "" {
		parts = append(parts, openai.ChatCompletionContentPartUnionParam{
			OfText: &openai.ChatCompletionContentPartTextParam{
				Text: "For consistency, the previous page's Markdown was:\n" + args.PriorPage,
			},
		})
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		{OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{OfString: openai.String(systemPrompt)},
		}},
		{OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts},
		}},
	}

	params := a.baseParams(messages, args.LLMParams)
	if args.Logprobs {
		params.Logprobs = openai.Bool(true)
	}

	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, pipelineerr.NewOcrError(0, err)
	}
	if len(completion.Choices) == 0 {
		return nil, pipelineerr.NewOcrError(0, fmt.Errorf("no choices returned"))
	}

	resp := &CompletionResponse{
		Content: completion.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}
	resp.Logprobs = extractLogprobs(completion)
	return resp, nil
}

func (a *OpenAIAdapter) extraction(ctx context.Context, args *ExtractionArgs) (*ExtractionResponse, error) {
	systemPrompt := args.Prompt
	if systemPrompt == "" {
		systemPrompt = defaultExtractionSystemPrompt
	}

	var parts []openai.ChatCompletionContentPartUnionParam
	for _, buf := range args.Input.ImageBuffers {
		dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf)
		parts = append(parts, openai.ChatCompletionContentPartUnionParam{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
			},
		})
	}
	if args.Input.Text != "" {
		parts = append(parts, openai.ChatCompletionContentPartUnionParam{
			OfText: &openai.ChatCompletionContentPartTextParam{Text: args.Input.Text},
		})
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		{OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{OfString: openai.String(systemPrompt)},
		}},
		{OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts},
		}},
	}

	params := a.baseParams(messages, args.LLMParams)
	schemaJSON, _ := json.Marshal(args.Schema)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   "extraction",
				Schema: json.RawMessage(schemaJSON),
			},
		},
	}

	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, pipelineerr.NewExtractionError("openai completion", err)
	}
	if len(completion.Choices) == 0 {
		return nil, pipelineerr.NewExtractionError("openai completion", fmt.Errorf("no choices returned"))
	}

	return &ExtractionResponse{
		RawJSON: completion.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
		Logprobs: extractLogprobs(completion),
	}, nil
}

func (a *OpenAIAdapter) baseParams(messages []openai.ChatCompletionMessageParamUnion, llmParams map[string]interface{}) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(a.model),
		Messages: messages,
	}

	snake := ToSnakeCase(llmParams)
	if maxTokens, ok := asInt64(snake["max_tokens"]); ok {
		if UsesMaxCompletionTokens(a.model) {
			params.MaxCompletionTokens = openai.Int(maxTokens)
		} else {
			params.MaxTokens = openai.Int(maxTokens)
		}
	}
	if temp, ok := asFloat64(snake["temperature"]); ok {
		params.Temperature = openai.Float(temp)
	}
	if topP, ok := asFloat64(snake["top_p"]); ok {
		params.TopP = openai.Float(topP)
	}
	return params
}

func extractLogprobs(completion *openai.ChatCompletion) []LogprobToken {
	if completion == nil || len(completion.Choices) == 0 {
		return nil
	}
	lp := completion.Choices[0].Logprobs
	if lp.Content == nil {
		return nil
	}
	out := make([]LogprobToken, 0, len(lp.Content))
	for _, c := range lp.Content {
		out = append(out, LogprobToken{Token: c.Token, Logprob: c.Logprob})
	}
	return out
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
