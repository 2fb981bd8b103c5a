package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"call-compliance-go/internal/actionable"
	"call-compliance-go/internal/aggregator"
	"call-compliance-go/internal/dataset"
	"call-compliance-go/internal/pipeline"
	"call-compliance-go/internal/processor"
	"call-compliance-go/internal/sink"
	"call-compliance-go/internal/transcription"
)

type batchOutput struct {
	Summary    dataset.Summary       `json:"summary"`
	Insight    aggregator.Insight    `json:"insight"`
	ActionCard actionable.ActionCard `json:"action_card"`
	Report     string                `json:"report,omitempty"`
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <calls.xlsx>",
		Short: "Score every call in a spreadsheet and write a report",
		Long: `Score every row of a call spreadsheet.

Rows without a transcript are fetched from the transcription service
configured by TRANSCRIBE_URL (or mocked with USE_MOCK_TRANSCRIBE=true).

Examples:
  compliancectl batch calls.xlsx --output report.xlsx
  compliancectl batch calls.xlsx --limit 20 --sqlite results.db --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			limit, _ := cmd.Flags().GetInt("limit")
			workers, _ := cmd.Flags().GetInt("workers")
			sqlitePath, _ := cmd.Flags().GetString("sqlite")

			cfg := loadConfig(cmd)
			log := cliLogger(cmd)

			jobs, err := dataset.Load(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if limit > 0 && len(jobs) > limit {
				jobs = jobs[:limit]
			}

			var out sink.Sink = sink.Discard{}
			if sqlitePath != "" {
				store, err := sink.OpenSQLite(sqlitePath)
				if err != nil {
					return fmt.Errorf("open result store: %w", err)
				}
				out = store
			}
			if workers <= 0 {
				workers = cfg.Workers
			}

			proc := processor.New(processor.Config{
				Engine:  pipeline.New(pipeline.Options{SafeExceptionWindow: cfg.SafeExceptionWindow}),
				Fetcher: transcription.New(cfg.TranscribeURL, transcription.WithMock(cfg.MockTranscribe), transcription.WithLogger(log)),
				Sink:    out,
				Logger:  log,
				Timeout: cfg.CallTimeout(),
				Workers: workers,
			})
			defer proc.Close()

			results := proc.ProcessBatch(cmd.Context(), jobs)
			ins := aggregator.Aggregate(results)
			res := batchOutput{
				Summary:    dataset.Summarize(results),
				Insight:    ins,
				ActionCard: actionable.Generate(ins),
			}
			if output != "" {
				if err := dataset.WriteReport(output, results); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				res.Report = output
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printBatch(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write an .xlsx report to this path")
	cmd.Flags().Int("limit", 0, "Score at most this many rows (0 for all)")
	cmd.Flags().Int("workers", 0, "Concurrent evaluations (defaults to WORKERS or CPU count)")
	cmd.Flags().String("sqlite", "", "Also store results in this SQLite database")
	return cmd
}

func printBatch(w io.Writer, b batchOutput) {
	s := b.Summary
	fmt.Fprintf(w, "Calls: %d  Evaluated: %d  Errors: %d  Auto-failed: %d\n",
		s.TotalCalls, s.Evaluated, s.Errors, s.AutoFailed)
	fmt.Fprintf(w, "Average score: %.1f\n", s.AverageScore)
	for name, c := range s.ByCampaign {
		fmt.Fprintf(w, "  %-10s calls=%d auto_failed=%d avg=%.1f\n", name, c.Calls, c.AutoFailed, c.AverageScore)
	}
	fmt.Fprintf(w, "\nInsight: %s\nAction:  %s\nImpact:  %s\n", b.ActionCard.Insight, b.ActionCard.Action, b.ActionCard.Impact)
	if b.Report != "" {
		fmt.Fprintf(w, "\nReport written to %s\n", b.Report)
	}
}
