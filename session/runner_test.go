package session

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book_creator/delivery"
	"book_creator/document"
	"book_creator/generator"
	"book_creator/testutil"
)

type scriptedLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *scriptedLLM) Complete(_ context.Context, p generator.Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p.User)
	return s.reply, s.err
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type fixture struct {
	runner  *Runner
	outputs *delivery.Store
	llm     *scriptedLLM
	hook    *test.Hook
}

func newFixture(t *testing.T, reply string, opts ...document.RendererOption) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	outputs, err := delivery.New(filepath.Join(t.TempDir(), "out"), logger)
	require.NoError(t, err)
	llm := &scriptedLLM{reply: reply}
	agent, err := generator.NewAgent(llm)
	require.NoError(t, err)
	runner, err := NewRunner(agent, document.NewExtractor(), document.NewRenderer(opts...), outputs, logger)
	require.NoError(t, err)
	return &fixture{runner: runner, outputs: outputs, llm: llm, hook: hook}
}

func openPublished(t *testing.T, outputs *delivery.Store, id string, kind delivery.Kind) []byte {
	t.Helper()
	f, err := outputs.Open(id, kind)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}

var lostKingdom = generator.GenerationRequest{
	Theme: "A lost kingdom",
	Intro: "A young heir seeks the throne",
	Pages: 5,
	Genre: "Fantasy",
}

func TestGenerateHappyPath(t *testing.T) {
	fx := newFixture(t, "# The Heir\n\nChapter one: the exile.")
	sess := NewStore(0, nil).Create()

	res, err := fx.runner.Generate(context.Background(), sess, lostKingdom)
	require.NoError(t, err)

	assert.Equal(t, delivery.KindOutline, res.Kind)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "# The Heir\n\nChapter one: the exile.", res.Completion.Text)

	require.Equal(t, 1, fx.llm.calls())
	for _, want := range []string{"A lost kingdom", "A young heir seeks the throne", "5", "Fantasy"} {
		assert.Contains(t, fx.llm.prompts[0], want)
	}

	snap := sess.Snapshot()
	assert.Equal(t, StateRendered, snap.Generation.State)
	assert.Equal(t, StateIdle, snap.Edit.State)

	pdf := openPublished(t, fx.outputs, sess.ID, delivery.KindOutline)
	ext, err := document.NewExtractor().Extract(pdf)
	require.NoError(t, err)
	assert.Contains(t, ext.Text, "A lost kingdom")
	assert.Contains(t, ext.Text, "exile")

	entry := fx.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "run finished", entry.Message)
	assert.Equal(t, "A lost kingdom", entry.Data["theme"])
	assert.Equal(t, 5, entry.Data["pages"])
	assert.Equal(t, "No edited response generated", entry.Data["edited_response"])
}

func TestGenerateInvalidRequestDoesNotCallModel(t *testing.T) {
	tests := []struct {
		name string
		req  generator.GenerationRequest
	}{
		{name: "zero pages", req: generator.GenerationRequest{Theme: "t", Intro: "i", Pages: 0, Genre: "g"}},
		{name: "empty theme", req: generator.GenerationRequest{Theme: "", Intro: "i", Pages: 2, Genre: "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, "unused")
			sess := NewStore(0, nil).Create()

			_, err := fx.runner.Generate(context.Background(), sess, tt.req)

			var vErr *generator.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, 0, fx.llm.calls())
			assert.Equal(t, StateIdle, sess.Snapshot().Generation.State)
			_, err = fx.outputs.Open(sess.ID, delivery.KindOutline)
			assert.True(t, errors.Is(err, delivery.ErrNotFound))
		})
	}
}

func TestGenerationFailureKeepsPreviousResult(t *testing.T) {
	fx := newFixture(t, "first outline")
	sess := NewStore(0, nil).Create()

	_, err := fx.runner.Generate(context.Background(), sess, lostKingdom)
	require.NoError(t, err)

	fx.llm.err = &generator.GenerationError{Kind: generator.KindQuota, Err: errors.New("quota exceeded")}
	_, err = fx.runner.Generate(context.Background(), sess, lostKingdom)

	var genErr *generator.GenerationError
	require.True(t, errors.As(err, &genErr))
	snap := sess.Snapshot()
	assert.Equal(t, StateFailed, snap.Generation.State)
	assert.Contains(t, snap.Generation.Error, "quota")
	require.NotNil(t, snap.Generation.Result)
	assert.Equal(t, "first outline", snap.Generation.Result.Completion.Text)

	pdf := openPublished(t, fx.outputs, sess.ID, delivery.KindOutline)
	assert.NotEmpty(t, pdf)
}

func TestRenderFailurePublishesNothing(t *testing.T) {
	fx := newFixture(t, "The heir of 东京.", document.WithStrictEncoding(true))
	sess := NewStore(0, nil).Create()

	_, err := fx.runner.Generate(context.Background(), sess, lostKingdom)

	var renderErr *document.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, StateFailed, sess.Snapshot().Generation.State)
	_, err = fx.outputs.Open(sess.ID, delivery.KindOutline)
	assert.True(t, errors.Is(err, delivery.ErrNotFound))
}

func TestEditScannedDocument(t *testing.T) {
	fx := newFixture(t, "Tightened prose.")
	sess := NewStore(0, nil).Create()

	res, err := fx.runner.Edit(context.Background(), sess, generator.EditRequest{
		Document:    testutil.BuildPDF(testutil.ScannedPage()),
		Filename:    "scan.pdf",
		Instruction: "tighten the prose",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.SourcePages)
	require.Equal(t, 1, fx.llm.calls())
	assert.Contains(t, fx.llm.prompts[0], "tighten the prose")
	assert.Equal(t, generator.FormatEditPrompt("", "tighten the prose").User, fx.llm.prompts[0])
	assert.Equal(t, StateRendered, sess.Snapshot().Edit.State)
	assert.NotEmpty(t, openPublished(t, fx.outputs, sess.ID, delivery.KindEdited))
}

func TestEditSendsExtractedText(t *testing.T) {
	fx := newFixture(t, "Edited.")
	sess := NewStore(0, nil).Create()

	_, err := fx.runner.Edit(context.Background(), sess, generator.EditRequest{
		Document:    testutil.BuildPDF(testutil.TextPage("It was a dark and stormy night")),
		Instruction: "make it cheerful",
	})
	require.NoError(t, err)

	require.Equal(t, 1, fx.llm.calls())
	assert.Contains(t, fx.llm.prompts[0], "It was a dark and stormy night")
	assert.Contains(t, fx.llm.prompts[0], "make it cheerful")
}

func TestEditUnreadableDocumentFails(t *testing.T) {
	fx := newFixture(t, "unused")
	sess := NewStore(0, nil).Create()

	_, err := fx.runner.Edit(context.Background(), sess, generator.EditRequest{
		Document:    []byte("%PDF-1.7 truncated"),
		Instruction: "fix",
	})

	var exErr *document.ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, 0, fx.llm.calls())
	assert.Equal(t, StateFailed, sess.Snapshot().Edit.State)
}

func TestWhitespaceCompletionStillRenders(t *testing.T) {
	fx := newFixture(t, "  \n \t\n")
	sess := NewStore(0, nil).Create()

	res, err := fx.runner.Generate(context.Background(), sess, lostKingdom)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)

	pages, err := document.PageCount(openPublished(t, fx.outputs, sess.ID, delivery.KindOutline))
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestSessionsDoNotShareResults(t *testing.T) {
	fx := newFixture(t, "shared reply")
	store := NewStore(0, nil)
	a, b := store.Create(), store.Create()

	var wg sync.WaitGroup
	for _, sess := range []*Session{a, b} {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			_, err := fx.runner.Generate(context.Background(), s, lostKingdom)
			assert.NoError(t, err)
		}(sess)
	}
	wg.Wait()

	_, err := fx.runner.Edit(context.Background(), a, generator.EditRequest{
		Document:    testutil.BuildPDF(testutil.TextPage("only in a")),
		Instruction: "edit",
	})
	require.NoError(t, err)

	assert.Equal(t, StateRendered, a.Snapshot().Edit.State)
	assert.Equal(t, StateIdle, b.Snapshot().Edit.State)
	_, err = fx.outputs.Open(b.ID, delivery.KindEdited)
	assert.True(t, errors.Is(err, delivery.ErrNotFound))
}
