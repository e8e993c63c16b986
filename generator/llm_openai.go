package generator

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
type OpenAILLM struct {
	Model       string
	Temperature float64
	Opts        []option.RequestOption
	limiter     *rate.Limiter
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set llm.api_key or OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	// one round trip per user action; the SDK would otherwise retry twice
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	llm := &OpenAILLM{Model: cfg.Model, Temperature: cfg.Temperature, Opts: opts}
	if cfg.RequestsPerMinute > 0 {
		llm.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return llm, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", &GenerationError{Kind: KindNetwork, Err: err}
		}
	}
	client := openai.NewClient(o.Opts...)

	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.Model),
		Messages:    msgs,
		Temperature: openai.Float(o.Temperature),
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Kind: KindEmpty, Err: errors.New("openai: empty choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) *GenerationError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &GenerationError{Kind: KindNetwork, Err: err}
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &GenerationError{Kind: KindAuth, Err: err}
	case http.StatusTooManyRequests:
		return &GenerationError{Kind: KindQuota, Err: err}
	default:
		return &GenerationError{Kind: KindUpstream, Err: err}
	}
}
