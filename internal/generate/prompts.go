package generate

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultRoadmapPrompt = `Analyze the following source text and generate a hierarchical learning roadmap.
Format the output *only* as a nested markdown list.
Use 2 spaces for each level of indentation.
Example:
- Main Topic 1
  - Sub-Topic 1.1
- Main Topic 2

Source Text:
---
{{.Source}}
---
`

const defaultContentPrompt = `Based *only* on the following source text, generate a detailed explanation
for the specific topic: "{{.Topic}}".
Use markdown for formatting (headings, lists, bold text).
Ensure the explanation is clear, concise, and factually grounded *only* in the source text.

SOURCE TEXT:
---
{{.Source}}
---
`

const defaultQuizPrompt = `Based *only* on the following detailed text, create a short 3-question
multiple-choice quiz with a correct answer key.
Format it clearly using markdown.

DETAILED TEXT:
---
{{.Content}}
---
`

// PromptTemplates holds raw template text, as read from a prompts file.
// Empty fields keep the built-in wording.
type PromptTemplates struct {
	Roadmap string `yaml:"roadmap"`
	Content string `yaml:"content"`
	Quiz    string `yaml:"quiz"`
}

// Prompts renders the three prompts the assistant sends.
type Prompts struct {
	roadmap *template.Template
	content *template.Template
	quiz    *template.Template
}

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() *Prompts {
	p, err := NewPrompts(PromptTemplates{})
	if err != nil {
		panic(err) // built-in templates are constant
	}
	return p
}

// NewPrompts compiles the given templates over the defaults.
func NewPrompts(t PromptTemplates) (*Prompts, error) {
	pick := func(override, fallback string) string {
		if strings.TrimSpace(override) != "" {
			return override
		}
		return fallback
	}

	var p Prompts
	var err error
	if p.roadmap, err = template.New("roadmap").Option("missingkey=error").Parse(pick(t.Roadmap, defaultRoadmapPrompt)); err != nil {
		return nil, fmt.Errorf("roadmap prompt: %w", err)
	}
	if p.content, err = template.New("content").Option("missingkey=error").Parse(pick(t.Content, defaultContentPrompt)); err != nil {
		return nil, fmt.Errorf("content prompt: %w", err)
	}
	if p.quiz, err = template.New("quiz").Option("missingkey=error").Parse(pick(t.Quiz, defaultQuizPrompt)); err != nil {
		return nil, fmt.Errorf("quiz prompt: %w", err)
	}
	return &p, nil
}

// LoadPrompts reads a YAML file with optional roadmap, content and quiz keys.
// An empty path returns the defaults.
func LoadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return DefaultPrompts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var t PromptTemplates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	return NewPrompts(t)
}

// Roadmap asks for a nested list of topics covering source.
func (p *Prompts) Roadmap(source string) (string, error) {
	return render(p.roadmap, struct{ Source string }{source})
}

// Content asks for an explanation of topic grounded in source.
func (p *Prompts) Content(topic, source string) (string, error) {
	return render(p.content, struct{ Topic, Source string }{topic, source})
}

// Quiz asks for a short multiple-choice quiz over content.
func (p *Prompts) Quiz(content string) (string, error) {
	return render(p.quiz, struct{ Content string }{content})
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return sb.String(), nil
}
