package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deqpkit/internal/rewrite"
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("prefix", "", "write results next to the input as <prefix><name> instead of in place")
	cmd.Flags().String("suffix", "", "write results as <name><suffix> instead of in place")
}

func readOutputFlags(cmd *cobra.Command) (rewrite.Output, error) {
	prefix, err := cmd.Flags().GetString("prefix")
	if err != nil {
		return rewrite.Output{}, fmt.Errorf("failed to get prefix flag: %w", err)
	}
	suffix, err := cmd.Flags().GetString("suffix")
	if err != nil {
		return rewrite.Output{}, fmt.Errorf("failed to get suffix flag: %w", err)
	}
	return rewrite.Output{Prefix: prefix, Suffix: suffix}, nil
}

// rewriteAll applies step to every .js file under paths and prints one line
// per file that changed or failed. A failing file does not stop the others;
// the per-file errors are joined into the result.
func rewriteAll(s *session, paths []string, step rewrite.Step, out rewrite.Output) error {
	done := s.step(step.Name())
	files, err := collectJS(paths)
	if err != nil {
		return err
	}
	changed, total := 0, 0
	var errs []error
	for _, f := range files {
		if err := s.ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		res, err := rewrite.RewriteFile(f, step, out)
		if err != nil {
			s.log.Warn("rewrite failed", zap.String("file", f), zap.Error(err))
			s.printf("%s: failed: %v\n", f, err)
			errs = append(errs, err)
			continue
		}
		if res.Changed {
			changed++
			total += res.Count
			s.printf("%s: %d change(s) -> %s\n", res.Input, res.Count, res.Output)
		}
	}
	done(fmt.Sprintf("%d files", len(files)))
	s.printf("%d of %d file(s) changed, %d substitution(s)\n", changed, len(files), total)
	if len(errs) > 0 {
		s.printf("%d file(s) failed\n", len(errs))
	}
	return errors.Join(errs...)
}
