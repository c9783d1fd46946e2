package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Analyze one recording and print the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
			}

			c, err := build(cmd.Context(), cfg, prometheus.NewRegistry(), os.Stdin)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.analyzer.Analyze(cmd.Context(), &types.AudioUpload{
				Filename: filepath.Base(args[0]),
				Source:   types.SourceCLI,
				Data:     data,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printResult(w io.Writer, r *types.AnalysisResult) {
	fmt.Fprintf(w, "Transcription:\n%s\n\n", r.Transcript)
	fmt.Fprintf(w, "Summary\n%s\n\n", r.Summary)
	fmt.Fprintf(w, "Alternative Response Suggestions\n%s\n", r.Suggestions)
}
