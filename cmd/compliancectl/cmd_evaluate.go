package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"call-compliance-go/internal/pipeline"
	"call-compliance-go/internal/processor"
	"call-compliance-go/internal/types"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <file>",
		Short: "Score a single call",
		Long: `Score one call read from a file.

A .json file is decoded as a call job (transcript, segments, checklist
verdicts). Any other file is read as a raw "[m:ss] Speaker: text" transcript.

Examples:
  compliancectl evaluate call.txt --product MEDICARE
  compliancectl evaluate job.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			product, _ := cmd.Flags().GetString("product")
			recordingID, _ := cmd.Flags().GetString("recording-id")
			window, _ := cmd.Flags().GetInt("window")

			job, err := readJob(args[0])
			if err != nil {
				return err
			}
			if product != "" {
				job.ProductType = product
			}
			if recordingID != "" {
				job.RecordingID = recordingID
			}
			if job.RecordingID == "" {
				job.RecordingID = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			cfg := loadConfig(cmd)
			if cmd.Flags().Changed("window") {
				cfg.SafeExceptionWindow = window
			}
			proc := processor.New(processor.Config{
				Engine:  pipeline.New(pipeline.Options{SafeExceptionWindow: cfg.SafeExceptionWindow}),
				Logger:  cliLogger(cmd),
				Timeout: cfg.CallTimeout(),
			})
			defer proc.Close()

			res := proc.ProcessCall(cmd.Context(), job)
			if res.Error != "" {
				return fmt.Errorf("evaluate %s: %s", job.RecordingID, res.Error)
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().String("product", "", "Product type (ACA, MEDICARE, WHATIF)")
	cmd.Flags().String("recording-id", "", "Recording id (defaults to the file name)")
	cmd.Flags().Int("window", 0, "Safe-exception line window (0 searches the whole call)")
	return cmd
}

func readJob(path string) (types.CallJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.CallJob{}, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var job types.CallJob
		if err := json.Unmarshal(data, &job); err != nil {
			return types.CallJob{}, fmt.Errorf("decode %s: %w", path, err)
		}
		return job, nil
	}
	return types.CallJob{Transcript: string(data)}, nil
}

func printResult(w io.Writer, res types.CallResult) {
	r := res.Result
	fmt.Fprintf(w, "Recording: %s (%s)\n", res.RecordingID, r.Campaign)
	fmt.Fprintf(w, "Score:     %d", r.ComplianceScore)
	if r.AutoFailTriggered {
		fmt.Fprint(w, "  AUTO-FAIL")
	}
	fmt.Fprintln(w)

	if len(r.AutoFailReasons) > 0 {
		fmt.Fprintln(w, "\nAuto-fails:")
		for _, v := range r.AutoFailReasons {
			fmt.Fprintf(w, "  %s %s: %q\n", v.Code, v.Violation, v.Trigger)
		}
	}
	if len(r.ComplianceWarnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, v := range r.ComplianceWarnings {
			fmt.Fprintf(w, "  %s %s: %q\n", v.Code, v.Violation, v.Trigger)
		}
	}

	fmt.Fprintln(w, "\nChecklist:")
	for _, it := range r.Checklist {
		mark := " "
		if it.Status == types.StatusPass {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s (%d)\n", mark, it.Name, it.Weight)
	}
}
