package services

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// DefaultDeepseekClient returns the Deepseek client, served by Ollama or
// OpenRouter when configured to.
var DefaultDeepseekClient = sync.OnceValues(func() (*openai.Client, error) {
	useOllama := os.Getenv("USE_OLLAMA_DEEPSEEK") == "true"
	useOpenRouter := os.Getenv("USE_OPENROUTER") == "true"

	if useOllama {
		config := openai.DefaultConfig("not-needed")
		config.BaseURL = "http://localhost:11434/v1"
		return openai.NewClientWithConfig(config), nil
	}

	if useOpenRouter {
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, errors.New("OPENROUTER_API_KEY environment variable is not set")
		}

		config := openai.DefaultConfig(apiKey)
		config.BaseURL = "https://openrouter.ai/api/v1"
		config.OrgID = "openrouter"
		return openai.NewClientWithConfig(config), nil
	}

	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return nil, errors.New("DEEPSEEK_API_KEY environment variable is not set")
	}

	baseURL := os.Getenv("DEEPSEEK_API_BASE")
	if baseURL == "" {
		baseURL = "https://api.deepseek.com/v1"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	return openai.NewClientWithConfig(config), nil
})
