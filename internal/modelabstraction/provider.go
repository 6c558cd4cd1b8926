package modelabstraction

import "github.com/adverant/zerox/internal/logging"

// ProviderName identifies which of the four families to construct.
type ProviderName string

const (
	ProviderOpenAI  ProviderName = "OPENAI"
	ProviderAzure   ProviderName = "AZURE"
	ProviderGoogle  ProviderName = "GOOGLE"
	ProviderBedrock ProviderName = "BEDROCK"
)

// NewProvider constructs the adapter for the requested family.
func NewProvider(name ProviderName, model string, creds Credentials, logger *logging.Logger) Provider {
	switch name {
	case ProviderAzure:
		return NewHTTPAdapter(FamilyAzure, model, creds, logger)
	case ProviderGoogle:
		return NewHTTPAdapter(FamilyGoogle, model, creds, logger)
	case ProviderBedrock:
		return NewHTTPAdapter(FamilyBedrock, model, creds, logger)
	default:
		return NewOpenAIAdapter(model, creds)
	}
}
