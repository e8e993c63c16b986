package generator

import (
	"context"
	"errors"
)

// Agent 是 Prompt → Completion 的唯一边界，调用方可同步调用或自行包装。
type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

// Generate sends the book outline prompt for req.
func (a *Agent) Generate(ctx context.Context, req GenerationRequest) (Completion, error) {
	return a.Complete(ctx, FormatGenerationPrompt(req))
}

// Edit sends the editing prompt for the extracted document text.
func (a *Agent) Edit(ctx context.Context, documentText, instruction string) (Completion, error) {
	return a.Complete(ctx, FormatEditPrompt(documentText, instruction))
}

// Complete runs one blocking round trip. A failed model call is always
// reported as a *GenerationError.
func (a *Agent) Complete(ctx context.Context, prompt Prompt) (Completion, error) {
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			return Completion{}, err
		}
		return Completion{}, &GenerationError{Kind: KindUpstream, Err: err}
	}
	return PostProcess(raw)
}
