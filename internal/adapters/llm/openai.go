package llm

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultTemperature keeps repeated drafts of the same prompt varied.
const DefaultTemperature = 0.7

const clauseSystemPrompt = "You are an experienced contracts lawyer. Follow the instructions exactly and answer with plain text."

// OpenAIAdapter implements ports.LLMService with the official openai-go SDK
// (chat completions). Works with any OpenAI-compatible endpoint via BaseURL.
type OpenAIAdapter struct {
	client      openai.Client
	model       string
	system      string
	temperature float64
}

// Settings configures a hosted model client. Temperature is sent as given,
// zero included; internal/config defaults it to DefaultTemperature.
type Settings struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
}

// NewOpenAIAdapter builds an adapter from settings.
func NewOpenAIAdapter(cfg Settings) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIAdapter{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		system:      clauseSystemPrompt,
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends prompt as a single user turn.
func (o *OpenAIAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(o.system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
