package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []Prompt
}

func (f *fakeLLM) Complete(_ context.Context, p Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

func TestNewAgentRequiresClient(t *testing.T) {
	_, err := NewAgent(nil)
	assert.Error(t, err)
}

func TestAgentGenerate(t *testing.T) {
	llm := &fakeLLM{reply: "# Outline\r\n\r\nChapter one."}
	agent, err := NewAgent(llm)
	require.NoError(t, err)

	got, err := agent.Generate(context.Background(), GenerationRequest{Theme: "A lost kingdom", Intro: "A young heir seeks the throne", Pages: 5, Genre: "Fantasy"})
	require.NoError(t, err)

	assert.Equal(t, "# Outline\n\nChapter one.", got.Text)
	assert.Contains(t, got.HTML, "<h1>Outline</h1>")
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0].User, "A lost kingdom")
}

func TestAgentEditSendsInstructionWithEmptyText(t *testing.T) {
	llm := &fakeLLM{reply: "edited"}
	agent, err := NewAgent(llm)
	require.NoError(t, err)

	got, err := agent.Edit(context.Background(), "", "tighten the prose")
	require.NoError(t, err)

	assert.Equal(t, "edited", got.Text)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0].User, "tighten the prose")
}

func TestAgentWrapsClientErrors(t *testing.T) {
	llm := &fakeLLM{err: errors.New("boom")}
	agent, err := NewAgent(llm)
	require.NoError(t, err)

	_, err = agent.Edit(context.Background(), "text", "fix")

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, KindUpstream, genErr.Kind)
	assert.EqualError(t, errors.Unwrap(err), "boom")
}

func TestAgentKeepsGenerationErrorKind(t *testing.T) {
	llm := &fakeLLM{err: &GenerationError{Kind: KindQuota, Err: errors.New("slow down")}}
	agent, err := NewAgent(llm)
	require.NoError(t, err)

	_, err = agent.Generate(context.Background(), GenerationRequest{Theme: "t", Intro: "i", Pages: 1, Genre: "g"})

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, KindQuota, genErr.Kind)
}

func TestAgentAcceptsWhitespaceCompletion(t *testing.T) {
	agent, err := NewAgent(&fakeLLM{reply: "  \n\t "})
	require.NoError(t, err)

	got, err := agent.Generate(context.Background(), GenerationRequest{Theme: "t", Intro: "i", Pages: 1, Genre: "g"})
	require.NoError(t, err)
	assert.Equal(t, "  \n\t ", got.Text)
}

func TestMockLLMEchoesPrompt(t *testing.T) {
	out, err := MockLLM{}.Complete(context.Background(), FormatEditPrompt("body", "shorter"))
	require.NoError(t, err)
	assert.Contains(t, out, "> shorter")
}
