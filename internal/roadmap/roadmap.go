// Package roadmap turns a model's nested markdown list into an ordered node
// sequence and a directed graph description of the same hierarchy.
//
// Parsing never fails. Lines that are not list items are skipped, so a
// response with no usable items yields an empty Roadmap. An item whose label
// is blank is skipped the same way; it opens no level, so items nested under
// it attach to the nearest earlier item or become roots.
package roadmap

import (
	"strconv"
	"strings"
)

// Node is one list item from the roadmap text. Nodes are identified by their
// position in Roadmap.Nodes; labels may repeat.
type Node struct {
	Depth int    `json:"depth"`
	Label string `json:"label"`
}

// Roadmap is the result of a single Parse call.
type Roadmap struct {
	Nodes []Node `json:"nodes"`
	Graph Graph  `json:"graph"`
}

// Option customizes Parse.
type Option func(*options)

type options struct {
	uniqueIDs bool
}

// WithUniqueIDs keys graph identifiers on node position instead of label, so
// two nodes sharing a label stay distinct in the graph. Every node is then
// declared as a Vertex carrying its display label.
func WithUniqueIDs() Option {
	return func(o *options) { o.uniqueIDs = true }
}

// Parse reads text line by line and returns the nodes it recognizes together
// with their graph description. See parseLine for the list-item rules.
func Parse(text string, opts ...Option) Roadmap {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rm := Roadmap{Nodes: []Node{}}
	b := newGraphBuilder()

	type openItem struct {
		depth int
		id    string
	}
	var stack []openItem

	if text != "" {
		for _, line := range strings.Split(text, "\n") {
			depth, label, ok := parseLine(line)
			if !ok {
				continue
			}
			pos := len(rm.Nodes)
			rm.Nodes = append(rm.Nodes, Node{Depth: depth, Label: label})

			// Siblings and deeper items are closed by an item at this depth.
			for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
				stack = stack[:len(stack)-1]
			}

			id := identifier(label)
			if o.uniqueIDs {
				vid := "n" + strconv.Itoa(pos)
				b.vertex(Vertex{ID: vid, Label: id})
				id = vid
			}

			if len(stack) > 0 {
				b.edge(stack[len(stack)-1].id, id)
			} else {
				b.root(id)
			}
			stack = append(stack, openItem{depth: depth, id: id})
		}
	}

	rm.Graph = b.graph()
	return rm
}

// parseLine matches a list item: a run of spaces, a '-' or '*' marker, one
// space, then a non-blank label. Depth is the space count halved, rounding
// down. Any other leading whitespace (tabs included) is not a list item.
func parseLine(line string) (depth int, label string, ok bool) {
	spaces := 0
	for spaces < len(line) && line[spaces] == ' ' {
		spaces++
	}
	rest := line[spaces:]
	if len(rest) < 2 || (rest[0] != '-' && rest[0] != '*') || rest[1] != ' ' {
		return 0, "", false
	}
	label = strings.TrimSpace(rest[2:])
	if label == "" {
		return 0, "", false
	}
	return spaces / 2, label, true
}

// identifier is the graph name for a label. Double quotes become single
// quotes so the quoted DOT identifier stays well formed.
func identifier(label string) string {
	return strings.ReplaceAll(label, `"`, `'`)
}

// Empty reports whether no list items were recognized.
func (r Roadmap) Empty() bool {
	return len(r.Nodes) == 0
}

// Node returns the node at position i.
func (r Roadmap) Node(i int) (Node, bool) {
	if i < 0 || i >= len(r.Nodes) {
		return Node{}, false
	}
	return r.Nodes[i], true
}

// Labels returns the node labels in sequence order.
func (r Roadmap) Labels() []string {
	out := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		out[i] = n.Label
	}
	return out
}
