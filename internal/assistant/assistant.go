// Package assistant drives a session through the learning flow: load a
// source, ask the model for a roadmap, pick a topic, explain it, quiz it.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/educontent/internal/generate"
	"github.com/dgallion1/educontent/internal/roadmap"
	"github.com/dgallion1/educontent/internal/session"
	"github.com/dgallion1/educontent/internal/source"
)

// Prerequisite errors, shared with the session.
var (
	ErrNoSource    = session.ErrNoSource
	ErrNoRoadmap   = session.ErrNoRoadmap
	ErrNoSelection = session.ErrNoSelection
	ErrNoContent   = session.ErrNoContent
)

// ErrEmptyRoadmap means the model answered but no list items could be parsed.
var ErrEmptyRoadmap = errors.New("model output contained no roadmap topics")

// Options tune the assistant.
type Options struct {
	// MaxSourceTokens clips long sources before they are stored. 0 disables.
	MaxSourceTokens int
	// UniqueNodeIDs keeps same-label topics apart in the roadmap graph.
	UniqueNodeIDs bool
}

// Assistant is stateless apart from its collaborators; all learner state
// lives in the session passed to each call.
type Assistant struct {
	gen     generate.Generator
	prompts *generate.Prompts
	opts    Options
	log     *slog.Logger
}

func New(gen generate.Generator, prompts *generate.Prompts, opts Options, log *slog.Logger) *Assistant {
	if prompts == nil {
		prompts = generate.DefaultPrompts()
	}
	return &Assistant{gen: gen, prompts: prompts, opts: opts, log: log}
}

// LoadSource stores doc as the session's source, clipped to the token budget.
func (a *Assistant) LoadSource(s *session.Session, doc *source.Document) session.Source {
	text, clipped := source.Clip(doc.Text(), a.opts.MaxSourceTokens)
	src := session.Source{
		Name:    doc.Title,
		Text:    text,
		Tokens:  source.EstimateTokens(text),
		Clipped: clipped,
	}
	src.Hash = session.ContentHashHex([]byte(text))
	s.SetSource(src)

	a.log.Info("source loaded",
		"session_id", s.ID,
		"name", src.Name,
		"tokens", src.Tokens,
		"clipped", src.Clipped,
		"hash", src.Hash[:12],
	)
	return src
}

// GenerateRoadmap asks the model for a topic outline of the source. Any
// previous roadmap, selection and content are cleared first, so a failed
// regeneration leaves the session at the source stage.
func (a *Assistant) GenerateRoadmap(ctx context.Context, s *session.Session) (roadmap.Roadmap, error) {
	src, epoch, err := s.ResetRoadmap()
	if err != nil {
		return roadmap.Roadmap{}, err
	}
	log := a.log.With("session_id", s.ID, "backend", a.gen.Name())

	prompt, err := a.prompts.Roadmap(src.Text)
	if err != nil {
		return roadmap.Roadmap{}, err
	}
	start := time.Now()
	out, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		log.Error("roadmap generation failed", "error", err)
		return roadmap.Roadmap{}, fmt.Errorf("generate roadmap: %w", err)
	}

	var opts []roadmap.Option
	if a.opts.UniqueNodeIDs {
		opts = append(opts, roadmap.WithUniqueIDs())
	}
	rm := roadmap.Parse(out, opts...)
	if rm.Empty() {
		log.Warn("model output had no list items", "preview", preview(out))
		return roadmap.Roadmap{}, ErrEmptyRoadmap
	}
	if err := s.SetRoadmap(epoch, rm); err != nil {
		log.Warn("discarding roadmap", "error", err)
		return roadmap.Roadmap{}, err
	}

	log.Info("roadmap generated",
		"topics", len(rm.Nodes),
		"roots", len(rm.Graph.Roots),
		"edges", len(rm.Graph.Edges),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rm, nil
}

// Select picks the topic at position index in the roadmap.
func (a *Assistant) Select(s *session.Session, index int) (roadmap.Node, error) {
	node, err := s.Select(index)
	if err != nil {
		return roadmap.Node{}, err
	}
	a.log.Info("topic selected", "session_id", s.ID, "index", index, "topic", node.Label)
	return node, nil
}

// GenerateContent explains the selected topic using only the source text.
func (a *Assistant) GenerateContent(ctx context.Context, s *session.Session) (string, error) {
	node, src, epoch, err := s.Selection()
	if err != nil {
		return "", err
	}
	log := a.log.With("session_id", s.ID, "backend", a.gen.Name(), "topic", node.Label)

	prompt, err := a.prompts.Content(node.Label, src.Text)
	if err != nil {
		return "", err
	}
	start := time.Now()
	out, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		log.Error("content generation failed", "error", err)
		return "", fmt.Errorf("generate content: %w", err)
	}
	content := strings.TrimSpace(out)
	if err := s.SetContent(epoch, content); err != nil {
		log.Warn("discarding content", "error", err)
		return "", err
	}

	log.Info("content generated", "chars", len(content), "duration_ms", time.Since(start).Milliseconds())
	return content, nil
}

// GenerateQuiz writes a short quiz over the current content.
func (a *Assistant) GenerateQuiz(ctx context.Context, s *session.Session) (string, error) {
	content, epoch, err := s.Content()
	if err != nil {
		return "", err
	}
	log := a.log.With("session_id", s.ID, "backend", a.gen.Name())

	prompt, err := a.prompts.Quiz(content)
	if err != nil {
		return "", err
	}
	start := time.Now()
	out, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		log.Error("quiz generation failed", "error", err)
		return "", fmt.Errorf("generate quiz: %w", err)
	}
	quiz := strings.TrimSpace(out)
	if err := s.SetQuiz(epoch, quiz); err != nil {
		log.Warn("discarding quiz", "error", err)
		return "", err
	}

	log.Info("quiz generated", "chars", len(quiz), "duration_ms", time.Since(start).Milliseconds())
	return quiz, nil
}

// IsPrerequisite reports whether err means a step was attempted too early.
func IsPrerequisite(err error) bool {
	return errors.Is(err, ErrNoSource) || errors.Is(err, ErrNoRoadmap) ||
		errors.Is(err, ErrNoSelection) || errors.Is(err, ErrNoContent)
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
