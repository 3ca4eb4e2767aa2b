package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deqpkit/internal/split"
	"deqpkit/internal/toolrun"
)

var splitCmd = &cobra.Command{
	Use:   "split <template.html> <max> [step]",
	Short: "Split a test page into copies that each run one range of test cases",
	Long: `Write one copy of the page per range [0, step], [step, 2*step], ... with the
last range open ended. Each copy's .run(gl); call receives its range and the
file name gets the zero-padded range start as suffix. The step defaults to 1.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSplit,
}

func runSplit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	template := args[0]
	upper, err := split.ParseBound(args[1])
	if err != nil {
		return err
	}
	step := 1
	if len(args) > 2 {
		if step, err = split.ParseBound(args[2]); err != nil {
			return err
		}
	}
	if err := toolrun.RequireFiles(template); err != nil {
		return err
	}
	data, err := os.ReadFile(template)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	page, err := split.Inspect(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if page.RunCalls == 0 {
		s.log.Warn("template has no .run(gl); call, nothing to do", zap.String("template", template))
		s.printf("%s: nothing to do\n", template)
		return nil
	}
	written, err := split.Split(template, upper, step)
	for _, path := range written {
		s.printf("wrote %s\n", path)
	}
	return err
}
