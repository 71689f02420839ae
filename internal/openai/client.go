package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultAnswerModel is the model used to emulate AI search engines
	DefaultAnswerModel = openai.GPT4oMini

	// SearchAssistantPrompt pins the engine into direct-answer mode so its
	// output resembles what real AI search engines return, not a chat thread.
	SearchAssistantPrompt = "You are a search assistant. Provide direct, comprehensive answers to queries " +
		"as if you were an AI search engine like ChatGPT, Perplexity, or Gemini. " +
		"Include specific recommendations when relevant."
)

var (
	// ErrEmptyQuery is returned when the query is empty
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrEmptyAnswer is returned when the API returns no answer text
	ErrEmptyAnswer = errors.New("engine returned an empty answer")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// ChatAPI defines the interface for answer generation
type ChatAPI interface {
	CreateAnswer(ctx context.Context, query, model string) (string, error)
}

// Client wraps the OpenAI API client behind the answering seam
type Client struct {
	api          ChatAPI
	defaultModel string
}

type OpenAIAdapter struct {
	client       *openai.Client
	systemPrompt string
}

func NewOpenAIAdapter(apiKey string) *OpenAIAdapter {
	return &OpenAIAdapter{
		client:       openai.NewClient(apiKey),
		systemPrompt: SearchAssistantPrompt,
	}
}

// CreateAnswer calls the OpenAI chat completions API with the fixed
// search-assistant system prompt
func (a *OpenAIAdapter) CreateAnswer(ctx context.Context, query, model string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey string
	Model  string
}

// NewClient creates a new answering client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new answering client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultAnswerModel
	}
	return &Client{
		api:          NewOpenAIAdapter(cfg.APIKey),
		defaultModel: model,
	}
}

// NewClientFromEnv creates a new answering client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Ask sends one query to the given model and returns the raw answer text.
// An empty model falls back to the client default; an empty answer is an error.
func (c *Client) Ask(ctx context.Context, query, model string) (string, error) {
	if query == "" {
		return "", ErrEmptyQuery
	}

	if model == "" {
		model = c.defaultModel
	}

	answer, err := c.api.CreateAnswer(ctx, query, model)
	if err != nil {
		return "", fmt.Errorf("failed to create answer: %w", err)
	}

	if answer == "" {
		return "", ErrEmptyAnswer
	}

	return answer, nil
}
