// Package session holds the state of one learner's walk through a source:
// the loaded text, its roadmap, the selected topic and what was generated for
// it. Every step invalidates the steps after it.
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/educontent/internal/roadmap"
)

var (
	ErrNoSource    = errors.New("no source loaded")
	ErrNoRoadmap   = errors.New("no roadmap generated")
	ErrNoSelection = errors.New("no topic selected")
	ErrNoContent   = errors.New("no content generated")
	// ErrBadIndex is returned by Select for a position outside the roadmap.
	ErrBadIndex = errors.New("topic index out of range")
	// ErrStale rejects a result computed against state that has since changed.
	ErrStale = errors.New("session changed while generating")
)

// Stage is how far a session has progressed.
type Stage string

const (
	StageEmpty    Stage = "empty"
	StageSource   Stage = "source"
	StageRoadmap  Stage = "roadmap"
	StageSelected Stage = "selected"
	StageContent  Stage = "content"
	StageQuiz     Stage = "quiz"
)

// Source is the text the session teaches from.
type Source struct {
	Name    string `json:"name"`
	Text    string `json:"-"`
	Tokens  int    `json:"tokens"`
	Clipped bool   `json:"clipped"`
	Hash    string `json:"hash"`
}

// Session is safe for concurrent use. Readers that start a generation take
// the current epoch along with their inputs and hand it back with the result;
// a mismatch means the inputs were replaced in the meantime.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	updatedAt time.Time

	epoch    uint64
	source   *Source
	roadmap  *roadmap.Roadmap
	selected int
	content  string
	quiz     string
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, updatedAt: now, selected: -1}
}

// resetLocked drops everything derived from the roadmap onwards.
func (s *Session) resetLocked() {
	s.selected = -1
	s.content = ""
	s.quiz = ""
	s.epoch++
	s.updatedAt = time.Now()
}

// SetSource replaces the source and clears everything derived from it.
func (s *Session) SetSource(src Source) {
	if src.Hash == "" {
		src.Hash = ContentHashHex([]byte(src.Text))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = &src
	s.roadmap = nil
	s.resetLocked()
}

// Source returns the loaded source and the current epoch.
func (s *Session) Source() (Source, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return Source{}, s.epoch, ErrNoSource
	}
	return *s.source, s.epoch, nil
}

// SetRoadmap stores a roadmap generated at epoch and clears the selection.
func (s *Session) SetRoadmap(epoch uint64, rm roadmap.Roadmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	if s.source == nil {
		return ErrNoSource
	}
	s.roadmap = &rm
	s.resetLocked()
	return nil
}

// ResetRoadmap drops the roadmap and everything derived from it before a new
// one is generated. It returns the source and the epoch to generate against.
func (s *Session) ResetRoadmap() (Source, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return Source{}, s.epoch, ErrNoSource
	}
	s.roadmap = nil
	s.resetLocked()
	return *s.source, s.epoch, nil
}

// Roadmap returns the current roadmap.
func (s *Session) Roadmap() (roadmap.Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roadmap == nil {
		return roadmap.Roadmap{}, ErrNoRoadmap
	}
	return *s.roadmap, nil
}

// Select picks the roadmap node at position index and clears any content
// generated for the previous selection.
func (s *Session) Select(index int) (roadmap.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roadmap == nil {
		return roadmap.Node{}, ErrNoRoadmap
	}
	node, ok := s.roadmap.Node(index)
	if !ok {
		return roadmap.Node{}, fmt.Errorf("%w: %d (roadmap has %d topics)", ErrBadIndex, index, len(s.roadmap.Nodes))
	}
	s.resetLocked()
	s.selected = index
	return node, nil
}

// Selection returns the selected node, the source it should be explained
// from, and the current epoch.
func (s *Session) Selection() (roadmap.Node, Source, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return roadmap.Node{}, Source{}, s.epoch, ErrNoSource
	}
	if s.roadmap == nil {
		return roadmap.Node{}, Source{}, s.epoch, ErrNoRoadmap
	}
	node, ok := s.roadmap.Node(s.selected)
	if !ok {
		return roadmap.Node{}, Source{}, s.epoch, ErrNoSelection
	}
	return node, *s.source, s.epoch, nil
}

// SetContent stores the explanation generated at epoch and clears the quiz.
func (s *Session) SetContent(epoch uint64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	if s.selected < 0 {
		return ErrNoSelection
	}
	s.content = content
	s.quiz = ""
	s.epoch++
	s.updatedAt = time.Now()
	return nil
}

// Content returns the current explanation and epoch.
func (s *Session) Content() (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content == "" {
		return "", s.epoch, ErrNoContent
	}
	return s.content, s.epoch, nil
}

// SetQuiz stores a quiz generated at epoch.
func (s *Session) SetQuiz(epoch uint64, quiz string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	if s.content == "" {
		return ErrNoContent
	}
	s.quiz = quiz
	s.updatedAt = time.Now()
	return nil
}

// Epoch is bumped by every change that invalidates in-flight generations.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.updatedAt = now
	s.mu.Unlock()
}

func (s *Session) lastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID        string           `json:"session_id"`
	Stage     Stage            `json:"stage"`
	Source    *Source          `json:"source,omitempty"`
	Roadmap   *roadmap.Roadmap `json:"roadmap,omitempty"`
	Selected  *int             `json:"selected,omitempty"`
	Topic     string           `json:"topic,omitempty"`
	Content   string           `json:"content,omitempty"`
	Quiz      string           `json:"quiz,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Snapshot returns a copy of the session state. The roadmap's slices are
// shared; they are never modified after SetRoadmap.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.ID,
		Stage:     s.stageLocked(),
		Content:   s.content,
		Quiz:      s.quiz,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
	}
	if s.source != nil {
		src := *s.source
		snap.Source = &src
	}
	if s.roadmap != nil {
		rm := *s.roadmap
		snap.Roadmap = &rm
		if node, ok := rm.Node(s.selected); ok {
			sel := s.selected
			snap.Selected = &sel
			snap.Topic = node.Label
		}
	}
	return snap
}

func (s *Session) stageLocked() Stage {
	switch {
	case s.quiz != "":
		return StageQuiz
	case s.content != "":
		return StageContent
	case s.selected >= 0:
		return StageSelected
	case s.roadmap != nil:
		return StageRoadmap
	case s.source != nil:
		return StageSource
	}
	return StageEmpty
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
