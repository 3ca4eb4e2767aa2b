package main

import (
	"github.com/spf13/cobra"

	"deqpkit/internal/rewrite"
)

var reformatCmd = &cobra.Command{
	Use:   "reformat [paths...]",
	Short: "Apply the [[reformat.rules]] of deqpkit.toml to JavaScript files",
	Long: `Apply the configured rewrite rules, in order, to every .js file under the given
paths. Without configured rules, leading tabs become four spaces and
assignments get one space on each side of '='.`,
	RunE: runReformat,
}

func init() {
	addOutputFlags(reformatCmd)
}

func runReformat(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := readOutputFlags(cmd)
	if err != nil {
		return err
	}
	pipeline, err := rewrite.CompileRules(s.cfg.Rules())
	if err != nil {
		return err
	}
	return rewriteAll(s, args, pipeline, out)
}
