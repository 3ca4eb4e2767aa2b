package main

import (
	"github.com/spf13/cobra"

	"deqpkit/internal/rewrite"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify-casts [paths...]",
	Short: "Drop the redundant @type annotation from casted var declarations",
	RunE:  runSimplify,
}

func init() {
	addOutputFlags(simplifyCmd)
}

func runSimplify(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := readOutputFlags(cmd)
	if err != nil {
		return err
	}
	return rewriteAll(s, args, rewrite.CastSimplifier{}, out)
}
