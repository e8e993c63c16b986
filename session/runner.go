package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"book_creator/delivery"
	"book_creator/document"
	"book_creator/generator"
)

const (
	outlineTitle = "Book Outline"
	editedTitle  = "Edited PDF Content"
)

// Runner drives one submission through format → generate → render →
// publish and records every step in the session.
type Runner struct {
	agent     *generator.Agent
	extractor *document.Extractor
	renderer  *document.Renderer
	outputs   *delivery.Store
	logger    *logrus.Logger
	now       func() time.Time
}

func NewRunner(agent *generator.Agent, extractor *document.Extractor, renderer *document.Renderer, outputs *delivery.Store, logger *logrus.Logger) (*Runner, error) {
	if agent == nil || extractor == nil || renderer == nil || outputs == nil {
		return nil, errors.New("runner needs agent, extractor, renderer and output store")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		agent:     agent,
		extractor: extractor,
		renderer:  renderer,
		outputs:   outputs,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Generate runs the book outline form. An invalid request returns a
// *generator.ValidationError and leaves the session untouched.
func (r *Runner) Generate(ctx context.Context, sess *Session, req generator.GenerationRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sess.run.Lock()
	defer sess.run.Unlock()
	defer r.logDiagnostics(sess)

	const kind = delivery.KindOutline
	sess.mu.Lock()
	sess.request = &req
	sess.mu.Unlock()
	sess.setState(kind, StateSubmitted)

	sess.setState(kind, StateFormatting)
	prompt := generator.FormatGenerationPrompt(req)

	sess.setState(kind, StateGenerating)
	completion, err := r.agent.Complete(ctx, prompt)
	if err != nil {
		return nil, r.fail(sess, kind, err)
	}

	pages, err := r.render(sess, kind, document.Content{
		Title: outlineTitle,
		Fields: []document.Field{
			{Label: "Theme", Value: req.Theme},
			{Label: "Introduction", Value: req.Intro},
			{Label: "Number of Pages", Value: strconv.Itoa(req.Pages)},
			{Label: "Type", Value: req.Genre},
		},
		Body: completion.Text,
	})
	if err != nil {
		return nil, r.fail(sess, kind, err)
	}

	res := &Result{
		Kind:       kind,
		Generation: &req,
		Completion: completion,
		Pages:      pages,
		FinishedAt: r.now(),
	}
	sess.succeed(kind, res)
	return res, nil
}

// Edit runs the PDF editing form. Pages without a text layer contribute
// nothing to the prompt; only an unreadable upload stops the run.
func (r *Runner) Edit(ctx context.Context, sess *Session, req generator.EditRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sess.run.Lock()
	defer sess.run.Unlock()
	defer r.logDiagnostics(sess)

	const kind = delivery.KindEdited
	sess.setState(kind, StateSubmitted)

	sess.setState(kind, StateExtracting)
	ext, err := r.extractor.Extract(req.Document)
	if err != nil {
		return nil, r.fail(sess, kind, err)
	}
	for _, skipped := range ext.Skipped {
		r.logger.WithFields(logrus.Fields{
			"session": sess.ID,
			"file":    req.Filename,
			"page":    skipped.Page,
		}).WithError(skipped.Err).Warn("page text unreadable, treated as empty")
	}

	sess.setState(kind, StateFormatting)
	prompt := generator.FormatEditPrompt(ext.Text, req.Instruction)

	sess.setState(kind, StateGenerating)
	completion, err := r.agent.Complete(ctx, prompt)
	if err != nil {
		return nil, r.fail(sess, kind, err)
	}

	pages, err := r.render(sess, kind, document.Content{Title: editedTitle, Body: completion.Text})
	if err != nil {
		return nil, r.fail(sess, kind, err)
	}

	res := &Result{
		Kind:        kind,
		Filename:    req.Filename,
		Instruction: req.Instruction,
		SourcePages: ext.Pages,
		Completion:  completion,
		Pages:       pages,
		FinishedAt:  r.now(),
	}
	sess.succeed(kind, res)
	return res, nil
}

// render builds the PDF and publishes it. Nothing is published when
// rendering fails.
func (r *Runner) render(sess *Session, kind delivery.Kind, content document.Content) (int, error) {
	sess.setState(kind, StateRendering)
	doc, err := r.renderer.Render(content)
	if err != nil {
		return 0, err
	}
	if _, err := r.outputs.Publish(sess.ID, kind, doc.Data); err != nil {
		return 0, err
	}
	return doc.Pages, nil
}

func (r *Runner) fail(sess *Session, kind delivery.Kind, err error) error {
	sess.fail(kind, err)
	r.logger.WithFields(logrus.Fields{
		"session": sess.ID,
		"kind":    kind,
	}).WithError(err).Error("run failed")
	return err
}

func (r *Runner) logDiagnostics(sess *Session) {
	sess.touch(r.now())

	snap := sess.Snapshot()
	sess.mu.RLock()
	req := sess.request
	sess.mu.RUnlock()

	fields := logrus.Fields{
		"session":         sess.ID,
		"response":        "No response generated",
		"edited_response": "No edited response generated",
	}
	if req != nil {
		fields["theme"] = req.Theme
		fields["intro"] = req.Intro
		fields["pages"] = req.Pages
		fields["type"] = req.Genre
	}
	if res := snap.Generation.Result; res != nil {
		fields["response"] = res.Completion.Text
	}
	if res := snap.Edit.Result; res != nil {
		fields["edited_response"] = res.Completion.Text
	}
	r.logger.WithFields(fields).Info("run finished")
}
