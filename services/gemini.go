package services

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

var DefaultGeminiClient = sync.OnceValues(func() (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set, please set it in MCP Config")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create Gemini client")
	}
	return client, nil
})
