package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/educontent/internal/roadmap"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.Execute()
	resetFlags(rootCmd)
	return out.String(), err
}

// resetFlags restores defaults so flag values do not leak between tests
// sharing the package-level commands.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestParseCommand_Tree(t *testing.T) {
	out, err := execute(t, "Roadmap:\n- Cells\n  - Nucleus\n- Genetics\n", "parse")
	require.NoError(t, err)
	assert.Equal(t, "0  Cells\n1  • Nucleus\n2  Genetics\n", out)
}

func TestParseCommand_DOT(t *testing.T) {
	out, err := execute(t, "- A\n  - B\n", "parse", "--format", "dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph G {\n"))
	assert.Contains(t, out, `  "A" -> "B";`)
}

func TestWriteRoadmap_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRoadmap(&buf, roadmap.Parse("- A\n  - B"), "yaml"))

	var decoded struct {
		Nodes []struct {
			Depth int
			Label string
		}
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Nodes, 2)
	assert.Equal(t, "B", decoded.Nodes[1].Label)
	assert.Equal(t, 1, decoded.Nodes[1].Depth)
}

func TestWriteRoadmap_UnknownFormat(t *testing.T) {
	err := writeRoadmap(&bytes.Buffer{}, roadmap.Parse("- A"), "svg")
	assert.ErrorContains(t, err, "unknown format")
}

func TestLoadSource(t *testing.T) {
	ctx := context.Background()

	_, err := loadSource(ctx, nil, "", "", "")
	assert.Error(t, err)
	_, err = loadSource(ctx, nil, "a.txt", "http://x", "")
	assert.Error(t, err)

	doc, err := loadSource(ctx, strings.NewReader("from stdin"), "", "", "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", doc.Text())

	doc, err = loadSource(ctx, nil, "", "", "inline text")
	require.NoError(t, err)
	assert.Equal(t, "Pasted text", doc.Title)
}

func TestRunCommand_RoadmapAndContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		reply := "Nuclei hold the genome."
		if strings.Contains(req.Prompt, "Use 2 spaces for each level of indentation.") {
			reply = "- Cells\n  - Nucleus\n"
		}
		json.NewEncoder(w).Encode(map[string]any{"response": reply, "done": true})
	}))
	defer ts.Close()
	t.Setenv("OLLAMA_URL", ts.URL)

	out, err := execute(t, "", "run", "--backend", "ollama", "--text", "Cells have nuclei.", "--select", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Roadmap: Pasted text\n")
	assert.Contains(t, out, "1  • Nucleus\n")
	assert.Contains(t, out, "\nNucleus\nNuclei hold the genome.\n")
}

func TestRunCommand_QuizNeedsSelection(t *testing.T) {
	t.Setenv("OLLAMA_URL", "http://127.0.0.1:1")
	_, err := execute(t, "", "run", "--backend", "ollama", "--text", "x", "--quiz")
	assert.ErrorContains(t, err, "--quiz needs a topic")
}
