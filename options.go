package zerox

import "github.com/adverant/zerox/internal/modelabstraction"

const (
	defaultModel           = "gpt-4o"
	defaultMaxImageSizeMB  = 15
	defaultConcurrency     = 10
	defaultMaxRetries      = 1
	defaultMaxTesseract    = -1 // auto
)

// Args is the configuration bundle for one Zerox invocation.
type Args struct {
	FilePath    string      `validate:"required"`
	Credentials Credentials `validate:"required"`
	Model       string
	ModelProvider ModelProvider

	// Behavior
	Cleanup             *bool
	Concurrency         int
	CorrectOrientation  *bool
	ErrorMode           ErrorMode
	MaintainFormat      bool
	MaxRetries          int
	MaxTesseractWorkers int

	// Imaging
	ImageDensity           int
	ImageHeight            int
	MaxImageSize           int64
	TrimEdges              *bool
	PagesToConvertAsImages PageSelectionArg
	TempDir                string
	OutputDir              string

	// LLM
	LLMParams      map[string]interface{}
	Prompt         string
	ReturnLogprobs bool

	// Extraction
	Schema                 map[string]interface{}
	ExtractPerPage         []string
	ExtractOnly            bool
	DirectImageExtraction  bool
	EnableHybridExtraction bool
	ExtractionModel        string
	ExtractionModelProvider ModelProvider
	ExtractionCredentials   *Credentials
	ExtractionPrompt        string
	ExtractionLLMParams     map[string]interface{}

	// Custom bypass
	CustomModelFunction CustomModelFunc
}

// PageSelectionArg mirrors rasterize.PageSelection at the public boundary
// so callers don't need to import the internal package.
type PageSelectionArg struct {
	All     bool
	Single  int
	Indices []int
}

// AllPages selects every page (the default).
var AllPages = PageSelectionArg{All: true}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// withDefaults returns a copy of args with every unset field resolved to
// its documented default.
func (a Args) withDefaults() Args {
	out := a

	if out.Model == "" {
		out.Model = defaultModel
	}
	if out.ModelProvider == "" {
		out.ModelProvider = ProviderOpenAI
	}
	if out.Concurrency <= 0 {
		out.Concurrency = defaultConcurrency
	}
	if out.ErrorMode == "" {
		out.ErrorMode = ErrorModeIgnore
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = defaultMaxRetries
	}
	if out.MaxTesseractWorkers == 0 {
		out.MaxTesseractWorkers = defaultMaxTesseract
	}
	if out.MaxImageSize == 0 {
		out.MaxImageSize = defaultMaxImageSizeMB * 1024 * 1024
	}
	if !out.PagesToConvertAsImages.All && out.PagesToConvertAsImages.Single == 0 && len(out.PagesToConvertAsImages.Indices) == 0 {
		out.PagesToConvertAsImages = AllPages
	}

	if out.ExtractOnly {
		out.DirectImageExtraction = true
	}
	if out.ExtractionModel == "" {
		out.ExtractionModel = out.Model
	}
	if out.ExtractionModelProvider == "" {
		out.ExtractionModelProvider = out.ModelProvider
	}
	if out.ExtractionCredentials == nil {
		creds := out.Credentials
		out.ExtractionCredentials = &creds
	}
	if out.ExtractionLLMParams == nil {
		out.ExtractionLLMParams = out.LLMParams
	}

	return out
}

func emptyCredentials(c Credentials) bool {
	return c == (modelabstraction.Credentials{})
}
