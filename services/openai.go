package services

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

var DefaultOpenAIClient = sync.OnceValues(func() (*openai.Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set, please set it in MCP Config")
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	config := openai.DefaultConfig(apiKey)

	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return openai.NewClientWithConfig(config), nil
})
