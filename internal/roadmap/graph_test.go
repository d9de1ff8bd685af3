package roadmap

import (
	"strings"
	"testing"
)

func TestGraphDOT_Golden(t *testing.T) {
	rm := Parse("- Topic A\n  - Sub A1\n  - Sub A1\n- Topic B")

	want := `digraph G {
  node [shape=box, style="rounded,filled", fontname=Inter, fillcolor="#E6F7FF"];
  edge [fontname=Inter];
  rankdir=LR;
  "Topic A";
  "Topic B";
  "Topic A" -> "Sub A1";
}
`
	if got := rm.Graph.DOT(); got != want {
		t.Errorf("unexpected DOT output:\n%s\nwant:\n%s", got, want)
	}
}

func TestGraphDOT_Empty(t *testing.T) {
	dot := Parse("").Graph.DOT()
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("expected a well-formed empty digraph, got:\n%s", dot)
	}
	if strings.Contains(dot, "->") {
		t.Errorf("expected no edges, got:\n%s", dot)
	}
}

func TestGraphDOT_UniqueIDs(t *testing.T) {
	dot := Parse("- X\n  - X", WithUniqueIDs()).Graph.DOT()
	for _, want := range []string{
		`"n0";`,
		`"n0" [label="X"];`,
		`"n1" [label="X"];`,
		`"n0" -> "n1";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("expected DOT to contain %q, got:\n%s", want, dot)
		}
	}
}

func TestGraphDOT_Backslashes(t *testing.T) {
	rm := Parse(`- C:\dir\` + "\n" + `  - a\b`)
	if rm.Graph.Roots[0] != `C:\dir\` {
		t.Errorf("expected graph identifier to keep the label, got %q", rm.Graph.Roots[0])
	}
	dot := rm.Graph.DOT()
	for _, want := range []string{
		`  "C:\\dir\\";` + "\n",
		`  "C:\\dir\\" -> "a\\b";` + "\n",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("expected DOT to contain %q, got:\n%s", want, dot)
		}
	}
}

func TestGraph_Empty(t *testing.T) {
	if !(Graph{}).Empty() {
		t.Error("expected zero graph to be empty")
	}
	if (Graph{Roots: []string{"a"}}).Empty() {
		t.Error("expected graph with a root to be non-empty")
	}
}
