package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/educontent/internal/assistant"
	"github.com/dgallion1/educontent/internal/generate"
	"github.com/dgallion1/educontent/internal/session"
	"github.com/dgallion1/educontent/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a roadmap for a source and explain a topic from it",
	Long: `Run loads one source (--file, --url or --text), asks the model for a
roadmap and prints it. With --select N it also explains topic N (the number
shown in the outline), and with --quiz it ends with a short quiz.`,
	Example: `  edu run --file notes.pdf
  edu run --url https://en.wikipedia.org/wiki/Photosynthesis --select 2 --quiz
  pbpaste | edu run --text - --select 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		rawURL, _ := cmd.Flags().GetString("url")
		text, _ := cmd.Flags().GetString("text")
		selectIdx, _ := cmd.Flags().GetInt("select")
		quiz, _ := cmd.Flags().GetBool("quiz")
		format, _ := cmd.Flags().GetString("format")

		if err := cfg.Validate(); err != nil {
			return err
		}
		if quiz && selectIdx < 0 {
			return errors.New("--quiz needs a topic; pass --select")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		doc, err := loadSource(ctx, cmd.InOrStdin(), file, rawURL, text)
		if err != nil {
			return err
		}

		backend, err := generate.New(cfg)
		if err != nil {
			return err
		}
		prompts, err := generate.LoadPrompts(cfg.PromptsFile)
		if err != nil {
			return err
		}
		gen := generate.Stack(backend, cfg, generate.NewLLMStats(0), log)
		defer generate.Close(gen)

		asst := assistant.New(gen, prompts, assistant.Options{
			MaxSourceTokens: cfg.MaxSourceTokens,
			UniqueNodeIDs:   cfg.UniqueNodeIDs,
		}, log)
		sess, err := session.NewStore(0, 1, log).Create()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		heading := color.New(color.Bold, color.Underline)

		src := asst.LoadSource(sess, doc)
		if src.Clipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: source clipped to about %d tokens\n", src.Tokens)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "generating roadmap with %s...\n", gen.Name())
		rm, err := asst.GenerateRoadmap(ctx, sess)
		if err != nil {
			return err
		}
		heading.Fprintf(out, "Roadmap: %s\n", src.Name)
		if err := writeRoadmap(out, rm, format); err != nil {
			return err
		}
		if selectIdx < 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "\npass --select N to explain a topic")
			return nil
		}

		node, err := asst.Select(sess, selectIdx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nexplaining %q...\n", node.Label)
		content, err := asst.GenerateContent(ctx, sess)
		if err != nil {
			return err
		}
		heading.Fprintf(out, "\n%s\n", node.Label)
		fmt.Fprintln(out, content)

		if quiz {
			fmt.Fprintln(cmd.ErrOrStderr(), "\nwriting quiz...")
			q, err := asst.GenerateQuiz(ctx, sess)
			if err != nil {
				return err
			}
			heading.Fprintln(out, "\nQuiz")
			fmt.Fprintln(out, q)
		}
		return nil
	},
}

func loadSource(ctx context.Context, stdin io.Reader, file, rawURL, text string) (*source.Document, error) {
	set := 0
	for _, v := range []string{file, rawURL, text} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("pass exactly one of --file, --url or --text")
	}

	switch {
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return source.Parse(f, filepath.Base(file), cfg.PDFFallbackPdftotext)
	case rawURL != "":
		return source.NewFetcher(cfg.FetchTimeout, cfg.MaxUploadBytes, cfg.PDFFallbackPdftotext).Fetch(ctx, rawURL)
	default:
		if text == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}
		return source.FromText("", text)
	}
}

func init() {
	runCmd.Flags().String("file", "", "source file (.txt, .md, .csv, .html, .pdf, .docx)")
	runCmd.Flags().String("url", "", "web page or document URL to use as the source")
	runCmd.Flags().String("text", "", `source text, or "-" to read stdin`)
	runCmd.Flags().Int("select", -1, "explain the topic at this position in the roadmap")
	runCmd.Flags().Bool("quiz", false, "finish with a quiz on the explained topic")
	runCmd.Flags().StringP("format", "f", "tree", "roadmap output format: tree, dot, json or yaml")

	rootCmd.AddCommand(runCmd)
}
