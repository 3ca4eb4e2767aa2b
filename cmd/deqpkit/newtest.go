package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deqpkit/internal/scaffold"
)

var newtestCmd = &cobra.Command{
	Use:   "newtest <test name> <module>",
	Short: "Create a new functional test module and its HTML page",
	Long: `Create functional/gles3/<module>.js and the matching HTML page, e.g.

  deqpkit newtest "Shader Struct" es3fShaderStructTests

writes functional/gles3/es3fShaderStructTests.js and functional/gles3/shaderstruct.html.`,
	Args: cobra.ExactArgs(2),
	RunE: runNewtest,
}

func init() {
	newtestCmd.Flags().String("dir", ".", "deqp root directory")
	newtestCmd.Flags().Bool("force", false, "overwrite existing files")
}

func runNewtest(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return fmt.Errorf("failed to get dir flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}
	test, err := scaffold.New(args[0], args[1])
	if err != nil {
		return err
	}
	written, err := test.Write(dir, force)
	if err != nil {
		return err
	}
	for _, path := range written {
		s.printf("created %s\n", path)
	}
	return nil
}
