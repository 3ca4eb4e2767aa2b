package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"deqpkit/internal/toolrun"
	"deqpkit/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "deqpkit",
	Short:         "Developer tools for the WebGL dEQP test suite",
	Long:          `deqpkit compiles dEQP sources with the Closure Compiler, rewrites and converts them, and scaffolds new tests`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errVerdictFailed is returned after a failing verdict has been printed.
var errVerdictFailed = errors.New("compilation failed")

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(reformatCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(simplifyCmd)
	rootCmd.AddCommand(newtestCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("config", "", "path to deqpkit.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error|off)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|command|batch|job|debug)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errVerdictFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process status: 2 for a missing
// input file, 1 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, toolrun.ErrMissingFile):
		return 2
	default:
		return 1
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
