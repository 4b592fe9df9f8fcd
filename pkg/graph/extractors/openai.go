package extractors

import (
	"context"
	"encoding/base64"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4o

// OpenAIExtractor extracts graphs through any OpenAI-compatible chat
// completion endpoint that supports JSON object responses.
type OpenAIExtractor struct {
	client *openai.Client
	config
}

// NewOpenAIExtractor wraps an already configured client.
func NewOpenAIExtractor(client *openai.Client, opts ...Option) *OpenAIExtractor {
	return &OpenAIExtractor{
		client: client,
		config: newConfig(DefaultOpenAIModel, opts),
	}
}

// BuildMessages creates the system prompt and a multi-part user message with
// text parts before image parts. Images are sent as base64 data URLs.
func BuildMessages(texts, images []graph.Part) []openai.ChatCompletionMessage {
	content := make([]openai.ChatMessagePart, 0, len(texts)+len(images))
	for _, text := range texts {
		content = append(content, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: textPrompt(text),
		})
	}
	for _, image := range images {
		content = append(content, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(image.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	return []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: ExtractionPrompt + schemaHint,
		},
		{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: content,
		},
	}
}

// Extract implements graph.Extractor
func (e *OpenAIExtractor) Extract(ctx context.Context, parts []graph.Part) (*graph.Extraction, error) {
	texts, images, err := e.prepareParts(parts)
	if err != nil {
		return nil, err
	}

	logger := e.logger.WithFields(logrus.Fields{
		"model":  e.model,
		"texts":  len(texts),
		"images": len(images),
		"files":  partNames(parts),
	})
	logger.Debug("Calling chat completion")

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    e.model,
		Messages: BuildMessages(texts, images),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, graph.TransportError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, graph.TransportError(errors.New("no choices in chat completion response"))
	}

	g, err := graph.DecodeGraphData([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		logger.WithError(err).Error("Failed to parse chat completion as a graph")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"nodes":         len(g.Nodes),
		"relationships": len(g.Relationships),
	}).Info("Chat completion extraction finished")
	return graph.NewExtraction(g), nil
}
