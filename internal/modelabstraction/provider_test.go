package modelabstraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/zerox/internal/logging"
)

func TestNewProvider_DispatchesByFamily(t *testing.T) {
	log := logging.NewLogger("test")
	creds := Credentials{APIKey: "k"}

	azure := NewProvider(ProviderAzure, "gpt-4o", creds, log)
	azureAdapter, ok := azure.(*HTTPAdapter)
	assert.True(t, ok)
	assert.Equal(t, FamilyAzure, azureAdapter.family)

	google := NewProvider(ProviderGoogle, "gemini-2.5-pro", creds, log)
	ok = false
	if a, isHTTP := google.(*HTTPAdapter); isHTTP {
		ok = true
		assert.Equal(t, FamilyGoogle, a.family)
	}
	assert.True(t, ok)

	bedrock := NewProvider(ProviderBedrock, "anthropic.claude", creds, log)
	if a, isHTTP := bedrock.(*HTTPAdapter); isHTTP {
		assert.Equal(t, FamilyBedrock, a.family)
	} else {
		t.Fatal("expected *HTTPAdapter for bedrock")
	}
}

func TestNewProvider_DefaultsToOpenAI(t *testing.T) {
	log := logging.NewLogger("test")
	provider := NewProvider(ProviderOpenAI, "gpt-4o", Credentials{APIKey: "k"}, log)

	_, ok := provider.(*OpenAIAdapter)
	assert.True(t, ok)
}

func TestNewProvider_UnknownNameDefaultsToOpenAI(t *testing.T) {
	log := logging.NewLogger("test")
	provider := NewProvider(ProviderName("something-else"), "gpt-4o", Credentials{APIKey: "k"}, log)

	_, ok := provider.(*OpenAIAdapter)
	assert.True(t, ok)
}
