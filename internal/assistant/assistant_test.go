package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/educontent/internal/generate"
	"github.com/dgallion1/educontent/internal/session"
	"github.com/dgallion1/educontent/internal/source"
)

// fakeGen answers with a fixed reply per prompt kind.
type fakeGen struct {
	mu      sync.Mutex
	roadmap string
	content string
	quiz    string
	err     error
	prompts []string
	// before runs ahead of the reply; tests use it to mutate the session
	// while a generation is in flight.
	before func()
}

func (f *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	before := f.before
	f.mu.Unlock()
	if before != nil {
		before()
	}
	if f.err != nil {
		return "", f.err
	}
	switch {
	case strings.Contains(prompt, "learning roadmap"):
		return f.roadmap, nil
	case strings.Contains(prompt, "multiple-choice quiz"):
		return f.quiz, nil
	default:
		return f.content, nil
	}
}

func (f *fakeGen) Name() string { return "fake:model" }

func newTestAssistant(g generate.Generator, opts Options) *Assistant {
	return New(g, nil, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	st := session.NewStore(0, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s, err := st.Create()
	require.NoError(t, err)
	return s
}

func loadText(t *testing.T, a *Assistant, s *session.Session, text string) {
	t.Helper()
	doc, err := source.FromText("Biology notes", text)
	require.NoError(t, err)
	a.LoadSource(s, doc)
}

func TestAssistant_FullFlow(t *testing.T) {
	g := &fakeGen{
		roadmap: "Here is your roadmap:\n- Cells\n  - Nucleus\n  - Membrane\n- Genetics\n",
		content: "\n## Nucleus\n\nHolds DNA.\n",
		quiz:    "1. What does the nucleus hold?\n",
	}
	a := newTestAssistant(g, Options{})
	s := newSession(t)
	loadText(t, a, s, "Cells have a nucleus that holds DNA.")

	rm, err := a.GenerateRoadmap(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cells", "Nucleus", "Membrane", "Genetics"}, rm.Labels())
	assert.Equal(t, []string{"Cells", "Genetics"}, rm.Graph.Roots)
	assert.Contains(t, g.prompts[0], "Cells have a nucleus that holds DNA.")

	node, err := a.Select(s, 1)
	require.NoError(t, err)
	assert.Equal(t, "Nucleus", node.Label)

	content, err := a.GenerateContent(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "## Nucleus\n\nHolds DNA.", content)
	assert.Contains(t, g.prompts[1], `"Nucleus"`)
	assert.Contains(t, g.prompts[1], "Cells have a nucleus")

	quiz, err := a.GenerateQuiz(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "1. What does the nucleus hold?", quiz)
	assert.Contains(t, g.prompts[2], "Holds DNA.")

	snap := s.Snapshot()
	assert.Equal(t, session.StageQuiz, snap.Stage)
	assert.Equal(t, "Biology notes", snap.Source.Name)
}

func TestAssistant_Prerequisites(t *testing.T) {
	a := newTestAssistant(&fakeGen{roadmap: "- A"}, Options{})
	s := newSession(t)
	ctx := context.Background()

	_, err := a.GenerateRoadmap(ctx, s)
	assert.ErrorIs(t, err, ErrNoSource)
	assert.True(t, IsPrerequisite(err))

	_, err = a.Select(s, 0)
	assert.ErrorIs(t, err, ErrNoRoadmap)

	_, err = a.GenerateContent(ctx, s)
	assert.ErrorIs(t, err, ErrNoSource)

	loadText(t, a, s, "text")
	_, err = a.GenerateContent(ctx, s)
	assert.ErrorIs(t, err, ErrNoRoadmap)

	_, err = a.GenerateRoadmap(ctx, s)
	require.NoError(t, err)
	_, err = a.GenerateContent(ctx, s)
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = a.GenerateQuiz(ctx, s)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestAssistant_EmptyRoadmap(t *testing.T) {
	a := newTestAssistant(&fakeGen{roadmap: "I cannot help with that."}, Options{})
	s := newSession(t)
	loadText(t, a, s, "text")

	_, err := a.GenerateRoadmap(context.Background(), s)
	assert.ErrorIs(t, err, ErrEmptyRoadmap)
	assert.False(t, IsPrerequisite(err))
	assert.Equal(t, session.StageSource, s.Snapshot().Stage)
}

func TestAssistant_GeneratorError(t *testing.T) {
	boom := errors.New("backend down")
	a := newTestAssistant(&fakeGen{err: boom}, Options{})
	s := newSession(t)
	loadText(t, a, s, "text")

	_, err := a.GenerateRoadmap(context.Background(), s)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "generate roadmap")
}

func TestAssistant_FailedRegenerateClearsRoadmap(t *testing.T) {
	g := &fakeGen{roadmap: "- A\n- B", content: "about A"}
	a := newTestAssistant(g, Options{})
	s := newSession(t)
	loadText(t, a, s, "text")
	_, err := a.GenerateRoadmap(context.Background(), s)
	require.NoError(t, err)
	_, err = a.Select(s, 0)
	require.NoError(t, err)
	_, err = a.GenerateContent(context.Background(), s)
	require.NoError(t, err)

	g.roadmap = "Sorry, no outline this time."
	_, err = a.GenerateRoadmap(context.Background(), s)
	assert.ErrorIs(t, err, ErrEmptyRoadmap)

	_, err = s.Roadmap()
	assert.ErrorIs(t, err, ErrNoRoadmap)
	_, _, err = s.Content()
	assert.ErrorIs(t, err, ErrNoContent)
	assert.Equal(t, session.StageSource, s.Snapshot().Stage)
}

func TestAssistant_StaleContentDiscarded(t *testing.T) {
	g := &fakeGen{roadmap: "- A\n- B", content: "about A"}
	a := newTestAssistant(g, Options{})
	s := newSession(t)
	loadText(t, a, s, "text")
	_, err := a.GenerateRoadmap(context.Background(), s)
	require.NoError(t, err)
	_, err = a.Select(s, 0)
	require.NoError(t, err)

	g.before = func() { s.Select(1) }
	_, err = a.GenerateContent(context.Background(), s)
	assert.ErrorIs(t, err, session.ErrStale)

	_, _, err = s.Content()
	assert.ErrorIs(t, err, ErrNoContent)
	assert.Equal(t, "B", s.Snapshot().Topic)
}

func TestAssistant_LoadSourceClips(t *testing.T) {
	a := newTestAssistant(&fakeGen{}, Options{MaxSourceTokens: 10})
	s := newSession(t)

	doc, err := source.FromText("long", strings.Repeat("word ", 50)+"\n\n"+strings.Repeat("more ", 50))
	require.NoError(t, err)
	src := a.LoadSource(s, doc)

	assert.True(t, src.Clipped)
	assert.LessOrEqual(t, src.Tokens, 10)
	assert.Len(t, src.Hash, 64)
}

func TestAssistant_UniqueNodeIDs(t *testing.T) {
	a := newTestAssistant(&fakeGen{roadmap: "- Overview\n  - Intro\n- Details\n  - Intro"}, Options{UniqueNodeIDs: true})
	s := newSession(t)
	loadText(t, a, s, "text")

	rm, err := a.GenerateRoadmap(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, rm.Graph.Vertices, 4)
	assert.Len(t, rm.Graph.Edges, 2)
}
