// Package main is the edu command line: parse roadmap text, run the learning
// flow against a source, and inspect the configured backend.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/educontent/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "edu",
	Short:   "Turn source material into a learning roadmap, explanations and quizzes",
	Version: version,
	Long: `edu reads a document, web page or pasted text, asks a language model for a
nested roadmap of topics, and explains any topic you pick from it using only the
source. Settings come from the environment (and a .env file if present); flags
override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg = config.Load()

		if v, _ := cmd.Flags().GetString("backend"); v != "" {
			cfg.Backend = strings.ToLower(v)
		}
		if v, _ := cmd.Flags().GetString("model"); v != "" {
			switch cfg.Backend {
			case config.BackendGemini:
				cfg.GeminiModel = v
			case config.BackendOllama:
				cfg.OllamaModel = v
			default:
				cfg.AnthropicModel = v
			}
		}
		if v, _ := cmd.Flags().GetString("prompts"); v != "" {
			cfg.PromptsFile = v
		}
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}

		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().String("backend", "", "generator backend: anthropic, gemini or ollama (default $GENERATOR_BACKEND)")
	rootCmd.PersistentFlags().String("model", "", "model name for the selected backend")
	rootCmd.PersistentFlags().String("prompts", "", "YAML file overriding the roadmap, content and quiz prompts")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log generation details to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
