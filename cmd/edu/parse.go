package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/educontent/internal/present"
	"github.com/dgallion1/educontent/internal/roadmap"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse nested-list roadmap text into topics and a graph",
	Long: `Parse reads roadmap text (a nested markdown list with 2-space indentation)
from a file or stdin and prints it without calling any model. Formats: tree
(numbered outline), dot (Graphviz), json and yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := io.Reader(cmd.InOrStdin())
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		text, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read roadmap: %w", err)
		}

		var opts []roadmap.Option
		if unique, _ := cmd.Flags().GetBool("unique-ids"); unique || cfg.UniqueNodeIDs {
			opts = append(opts, roadmap.WithUniqueIDs())
		}
		rm := roadmap.Parse(string(text), opts...)

		format, _ := cmd.Flags().GetString("format")
		return writeRoadmap(cmd.OutOrStdout(), rm, format)
	},
}

func writeRoadmap(w io.Writer, rm roadmap.Roadmap, format string) error {
	switch format {
	case "tree":
		return present.Outline(w, rm.Nodes, !color.NoColor)
	case "dot":
		_, err := io.WriteString(w, rm.Graph.DOT())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rm)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rm)
	default:
		return fmt.Errorf("unknown format %q (want tree, dot, json or yaml)", format)
	}
}

func init() {
	parseCmd.Flags().StringP("format", "f", "tree", "output format: tree, dot, json or yaml")
	parseCmd.Flags().Bool("unique-ids", false, "key graph nodes on position so repeated labels stay distinct")

	rootCmd.AddCommand(parseCmd)
}
