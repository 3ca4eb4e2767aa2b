package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deqpkit/internal/rewrite"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <namespace> [paths...]",
	Short: "Insert JSDoc stubs before undocumented namespace members",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnnotate,
}

func init() {
	annotateCmd.Flags().String("indent", "", "indentation placed before each comment line")
	addOutputFlags(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	indent, err := cmd.Flags().GetString("indent")
	if err != nil {
		return fmt.Errorf("failed to get indent flag: %w", err)
	}
	out, err := readOutputFlags(cmd)
	if err != nil {
		return err
	}
	return rewriteAll(s, args[1:], rewrite.Annotator{Namespace: args[0], Indent: indent}, out)
}
