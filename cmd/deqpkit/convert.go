package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deqpkit/internal/closure"
	"deqpkit/internal/modconv"
	"deqpkit/internal/rewrite"
	"deqpkit/internal/toolrun"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert require.js modules to Closure goog.provide modules",
}

var convertTransformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Rewrite every module under the input directory into the output directory",
	Args:  cobra.NoArgs,
	RunE:  runConvertTransform,
}

var convertCompileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile all converted sources together with undefined-variable checks",
	Args:  cobra.NoArgs,
	RunE:  runConvertCompile,
}

var convertDepsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Write the goog.addDependency file for the converted tree",
	Args:  cobra.NoArgs,
	RunE:  runConvertDeps,
}

func init() {
	convertCmd.PersistentFlags().String("in", "", "input directory; default from [convert].in_dir")
	convertCmd.PersistentFlags().String("out", "", "output directory; default from [convert].out_dir")

	convertTransformCmd.Flags().String("helper", "", "vars helper script; default from [convert].helper")
	convertTransformCmd.Flags().String("whitelist", "", "comma-separated names never aliased; default from [convert].whitelist")

	convertCompileCmd.Flags().String("report", "converted.compiled", "compiler report file")

	convertDepsCmd.Flags().String("prefix", "", "root prefix passed to depswriter; default from [convert].deps_prefix")

	convertCmd.AddCommand(convertTransformCmd, convertCompileCmd, convertDepsCmd)
}

// convertDirs resolves --in and --out against the manifest.
func convertDirs(cmd *cobra.Command, s *session) (string, string, error) {
	in, err := cmd.Flags().GetString("in")
	if err != nil {
		return "", "", fmt.Errorf("failed to get in flag: %w", err)
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return "", "", fmt.Errorf("failed to get out flag: %w", err)
	}
	if in == "" {
		in = s.cfg.Convert.InDir
	}
	if out == "" {
		out = s.cfg.Convert.OutDir
	}
	return in, out, nil
}

func runConvertTransform(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	in, out, err := convertDirs(cmd, s)
	if err != nil {
		return err
	}
	helper, err := cmd.Flags().GetString("helper")
	if err != nil {
		return fmt.Errorf("failed to get helper flag: %w", err)
	}
	if helper == "" {
		helper = s.cfg.Convert.Helper
	}
	whitelistPath, err := cmd.Flags().GetString("whitelist")
	if err != nil {
		return fmt.Errorf("failed to get whitelist flag: %w", err)
	}
	if whitelistPath == "" {
		whitelistPath = s.cfg.Convert.Whitelist
	}
	if err := toolrun.RequireFiles(helper); err != nil {
		return err
	}
	whitelist, err := modconv.ReadWhitelist(whitelistPath)
	if err != nil {
		return err
	}

	conv := &modconv.Converter{
		Fetcher:   modconv.HelperFetcher{Command: helper},
		Whitelist: whitelist,
		InDir:     in,
		OutDir:    out,
		Logger:    s.log,
	}
	done := s.step("convert")
	res, err := conv.ConvertAll(s.ctx)
	done(fmt.Sprintf("%d converted", len(res.Converted)))
	if err != nil {
		return err
	}
	for _, p := range res.Problems {
		fmt.Fprintf(s.errOut, "%s: %v\n", p.Path, p.Err)
	}
	s.printf("converted %d file(s) into %s\n", len(res.Converted), out)
	if invalid := res.Invalid(); invalid > 0 {
		s.printf("%d file(s) don't have a valid format\n", invalid)
	}
	if len(res.Problems) > 0 {
		return fmt.Errorf("%d file(s) could not be converted", len(res.Problems))
	}
	return nil
}

func runConvertCompile(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, out, err := convertDirs(cmd, s)
	if err != nil {
		return err
	}
	report, err := cmd.Flags().GetString("report")
	if err != nil {
		return fmt.Errorf("failed to get report flag: %w", err)
	}
	files, err := rewrite.WalkJS(out)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		s.printf("no .js files under %s\n", out)
		return nil
	}
	s.log.Info("compiling converted sources", zap.Int("files", len(files)), zap.String("report", report))
	job := closure.CompileAllJob(s.cfg.Compiler.Closure(), files, report)
	batch, err := s.batch(0, false)
	if err != nil {
		return err
	}
	res, err := batch.Run(s.ctx, []toolrun.Job{job}, toolrun.Totals{})
	if err != nil {
		return err
	}
	return s.finish(res)
}

func runConvertDeps(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, out, err := convertDirs(cmd, s)
	if err != nil {
		return err
	}
	prefix, err := cmd.Flags().GetString("prefix")
	if err != nil {
		return fmt.Errorf("failed to get prefix flag: %w", err)
	}
	if prefix == "" {
		prefix = s.cfg.Convert.DepsPrefix
	}
	if err := toolrun.RequireFiles(out); err != nil {
		return err
	}
	writer := s.cfg.DepsWriter()
	writer.Dir = out
	if !filepath.IsAbs(writer.Script) {
		abs, err := filepath.Abs(writer.Script)
		if err != nil {
			return err
		}
		writer.Script = abs
	}
	job := writer.Job(prefix, filepath.Join(out, s.cfg.Convert.DepsFile))
	batch, err := s.batch(0, false)
	if err != nil {
		return err
	}
	res, err := batch.Run(s.ctx, []toolrun.Job{job}, toolrun.Totals{})
	if err != nil {
		return err
	}
	return s.finish(res)
}
