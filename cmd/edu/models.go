package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/educontent/internal/config"
	"github.com/dgallion1/educontent/internal/generate"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed on the Ollama daemon",
	Long: `Models checks the connection to OLLAMA_URL and lists the installed models.
The configured OLLAMA_MODEL is marked with an asterisk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := generate.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, generate.Options{Timeout: 10 * time.Second})
		defer client.Close()

		models, err := client.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "connected to %s; no models installed\n", cfg.OllamaURL)
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\tNAME\tSIZE\tMODIFIED")
		for _, m := range models {
			mark := ""
			if m.Name == cfg.OllamaModel || m.Name == cfg.OllamaModel+":latest" {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%.1f GB\t%s\n", mark, m.Name, float64(m.Size)/1e9, m.ModifiedAt.Format(time.DateOnly))
		}
		return tw.Flush()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective backend configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backend:      %s\n", cfg.Backend)
		fmt.Fprintf(out, "model:        %s\n", cfg.Model())
		if cfg.Backend == config.BackendOllama {
			fmt.Fprintf(out, "ollama url:   %s\n", cfg.OllamaURL)
		}
		fmt.Fprintf(out, "prompts file: %s\n", valueOr(cfg.PromptsFile, "(built-in)"))
		fmt.Fprintf(out, "retries:      %d attempts, %s base delay\n", cfg.RetryMaxAttempts, cfg.RetryBaseDelay)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "status:       %v\n", err)
			return nil
		}
		fmt.Fprintln(out, "status:       ok")
		return nil
	},
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
}
