package modelabstraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/zerox/internal/logging"
)

func newTestAdapter(t *testing.T, family Family, serverURL string) *HTTPAdapter {
	t.Helper()
	return NewHTTPAdapter(family, "test-model", Credentials{APIKey: "k", Endpoint: serverURL}, logging.NewLogger("test"))
}

func TestHTTPAdapter_OCR_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("api-key"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"content":      "# Page one",
				"inputTokens":  10,
				"outputTokens": 20,
			},
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(t, FamilyAzure, server.URL)
	resp, _, err := adapter.GetCompletion(context.Background(), ModeOCR, &OCRArgs{Buffers: [][]byte{[]byte("img")}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "# Page one", resp.Content)
	assert.Equal(t, 10, resp.Usage.InputTokens)
	assert.Equal(t, 20, resp.Usage.OutputTokens)
}

func TestHTTPAdapter_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, FamilyAzure, server.URL)
	_, _, err := adapter.GetCompletion(context.Background(), ModeOCR, &OCRArgs{Buffers: [][]byte{[]byte("img")}}, nil)
	assert.Error(t, err)
}

func TestHTTPAdapter_SuccessFalseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "rate limited"})
	}))
	defer server.Close()

	adapter := newTestAdapter(t, FamilyAzure, server.URL)
	_, _, err := adapter.GetCompletion(context.Background(), ModeOCR, &OCRArgs{Buffers: [][]byte{[]byte("img")}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestHTTPAdapter_Extraction_SendsSchemaAndText(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"content": `{"x":1}`},
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(t, FamilyBedrock, server.URL)
	schema := map[string]interface{}{"type": "object"}
	_, resp, err := adapter.GetCompletion(context.Background(), ModeExtraction, nil, &ExtractionArgs{
		Input:  ExtractionInput{Kind: ExtractionInputText, Text: "page content"},
		Schema: schema,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, resp.RawJSON)
	require.Len(t, captured.Messages, 1)
	require.Len(t, captured.Messages[0].Content, 1)
	assert.Equal(t, "page content", captured.Messages[0].Content[0].Text)
	assert.Equal(t, "object", captured.JSONSchema["type"])
}

func TestTranslateParams_GoogleUsesSnakeCase(t *testing.T) {
	adapter := &HTTPAdapter{family: FamilyGoogle, model: "gemini-2.5-pro"}
	out := adapter.translateParams(map[string]interface{}{"topP": 0.9})
	assert.Equal(t, 0.9, out["top_p"])
}

func TestTranslateParams_AzureUsesCamelCase(t *testing.T) {
	adapter := &HTTPAdapter{family: FamilyAzure, model: "gpt-4o"}
	out := adapter.translateParams(map[string]interface{}{"top_p": 0.9})
	assert.Equal(t, 0.9, out["topP"])
}

func TestTranslateParams_Gemini3MapsThinkingLevel(t *testing.T) {
	adapter := &HTTPAdapter{family: FamilyGoogle, model: "gemini-3-pro"}
	out := adapter.translateParams(map[string]interface{}{"thinkingLevel": "high", "mediaResolution": "low"})
	assert.Equal(t, "THINKING_LEVEL_HIGH", out["thinking_level"])
	assert.Equal(t, "MEDIA_RESOLUTION_LOW", out["media_resolution"])
}

func TestBuildRequest_GoogleDropsThinkingLevelOutsideGemini3(t *testing.T) {
	adapter := &HTTPAdapter{family: FamilyGoogle, model: "gemini-2.5-pro", logger: logging.NewLogger("test")}
	req := adapter.buildRequest("sys", nil, map[string]interface{}{"thinkingLevel": "high"}, nil, false)
	_, has := req.Params["thinkingLevel"]
	assert.False(t, has)
	assert.True(t, adapter.warnedThinkingLevel)
}

func TestEndpointAndHeaders_Azure(t *testing.T) {
	adapter := &HTTPAdapter{family: FamilyAzure, model: "gpt-4o", creds: Credentials{APIKey: "k", Endpoint: "https://example.azure.com"}}
	endpoint, headers := adapter.endpointAndHeaders()
	assert.Equal(t, "https://example.azure.com/openai/deployments/gpt-4o/chat/completions", endpoint)
	assert.Equal(t, "k", headers["api-key"])
}

func TestEndpointAndHeaders_GoogleServiceAccount(t *testing.T) {
	adapter := &HTTPAdapter{family: FamilyGoogle, model: "gemini-2.5-pro", creds: Credentials{
		ServiceAccountJSON: "token", Endpoint: "https://aiplatform.googleapis.com", Location: "us-central1",
	}}
	endpoint, headers := adapter.endpointAndHeaders()
	assert.Contains(t, endpoint, "us-central1")
	assert.Equal(t, "Bearer token", headers["Authorization"])
}
