package summarize

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Completer generates text from a prompt. The OpenAI client implements
// it; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const systemPrompt = "You are a study assistant that turns course material into concise, accurate study aids."

// OpenAIClient is the Completer backed by the OpenAI chat completion API
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates a completer using the given API key and model
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: 1024,
	}
}

// Complete sends the prompt and returns the first choice's content
func (o *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
