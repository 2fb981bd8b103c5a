package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"call-compliance-go/internal/config"
	"call-compliance-go/internal/logger"
)

var version = "0.1.0-dev"

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "compliancectl",
		Short: "Deterministic compliance scoring for sales calls",
		Long: `compliancectl scores recorded sales calls against campaign scripts.

It detects auto-fail violations, extracts the campaign checklist and
writes batch reports without calling any model.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newEvaluateCmd(),
		newBatchCmd(),
		newRulesCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				_ = printJSON(cmd.OutOrStdout(), map[string]string{"version": version})
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compliancectl version %s\n", version)
		},
	}
}

// cliLogger writes to stderr so stdout stays parseable.
func cliLogger(cmd *cobra.Command) *logger.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.NewWithOptions(logger.Options{Level: level, Output: cmd.ErrOrStderr()})
}

// loadConfig tolerates a broken environment; flags override what matters.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return config.Default()
	}
	return cfg
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
