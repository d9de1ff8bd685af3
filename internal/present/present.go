// Package present renders generated material for people: markdown to HTML
// for the API, and roadmap outlines for the terminal.
package present

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/educontent/internal/roadmap"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts model markdown to an HTML fragment. Raw HTML in the input is
// not passed through.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Indent is the per-level prefix of an outline line.
const Indent = "• "

// Outline writes one line per node: its position, then Indent repeated once
// per depth level, then the label. Positions are what callers pass back to
// select a topic, since labels may repeat.
func Outline(w io.Writer, nodes []roadmap.Node, colored bool) error {
	index := color.New(color.FgHiBlack)
	root := color.New(color.FgCyan, color.Bold)
	if colored {
		index.EnableColor()
		root.EnableColor()
	} else {
		index.DisableColor()
		root.DisableColor()
	}

	width := len(strconv.Itoa(max(len(nodes)-1, 0)))
	for i, n := range nodes {
		pos := index.Sprintf("%*d", width, i)
		line := strings.Repeat(Indent, n.Depth) + n.Label
		if n.Depth == 0 {
			line = root.Sprint(line)
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", pos, line); err != nil {
			return err
		}
	}
	return nil
}
