package services

import (
	"os"
	"strconv"
	"strings"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/athapong/docgraph/pkg/graph/extractors"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Extractor providers
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepseek = "deepseek"
	ProviderProse    = "prose"
)

const defaultDeepseekModel = "deepseek-chat"

// ResolveProvider picks the explicit provider, then EXTRACTOR_PROVIDER, then
// Gemini.
func ResolveProvider(provider string) string {
	if provider == "" {
		provider = os.Getenv("EXTRACTOR_PROVIDER")
	}
	if provider == "" {
		return ProviderGemini
	}
	return strings.ToLower(strings.TrimSpace(provider))
}

// ExtractorOptions reads model and token budget settings for provider from
// the environment. An explicit model overrides the environment.
func ExtractorOptions(provider, model string, logger *logrus.Logger) ([]extractors.Option, error) {
	if model == "" {
		switch provider {
		case ProviderGemini:
			model = os.Getenv("GEMINI_MODEL")
		case ProviderOpenAI:
			model = os.Getenv("OPENAI_MODEL")
		case ProviderDeepseek:
			model = os.Getenv("DEEPSEEK_MODEL")
			if model == "" {
				model = defaultDeepseekModel
			}
		}
	}

	opts := []extractors.Option{extractors.WithModel(model), extractors.WithLogger(logger)}
	if raw := os.Getenv("EXTRACTION_TOKEN_BUDGET"); raw != "" {
		budget, err := strconv.Atoi(raw)
		if err != nil || budget < 0 {
			return nil, errors.Errorf("EXTRACTION_TOKEN_BUDGET must be a non-negative integer, got %q", raw)
		}
		opts = append(opts, extractors.WithTokenBudget(budget))
	}
	return opts, nil
}

// NewExtractor builds the extractor for provider from environment
// configuration. It returns the resolved provider name alongside.
func NewExtractor(provider, model string, logger *logrus.Logger) (graph.Extractor, string, error) {
	provider = ResolveProvider(provider)
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if provider == ProviderProse {
		return extractors.NewProseExtractor(logger), provider, nil
	}

	opts, err := ExtractorOptions(provider, model, logger)
	if err != nil {
		return nil, provider, err
	}

	switch provider {
	case ProviderGemini:
		client, err := DefaultGeminiClient()
		if err != nil {
			return nil, provider, err
		}
		return extractors.NewGeminiExtractor(client, opts...), provider, nil
	case ProviderOpenAI:
		client, err := DefaultOpenAIClient()
		if err != nil {
			return nil, provider, err
		}
		return extractors.NewOpenAIExtractor(client, opts...), provider, nil
	case ProviderDeepseek:
		client, err := DefaultDeepseekClient()
		if err != nil {
			return nil, provider, err
		}
		return extractors.NewOpenAIExtractor(client, opts...), provider, nil
	default:
		return nil, provider, errors.Errorf("unknown extractor provider %q (want gemini, openai, deepseek or prose)", provider)
	}
}
