package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"deqpkit/internal/closure"
	"deqpkit/internal/toolrun"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop cached reports and, with --targets, generated target files",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().Bool("targets", false, "also remove <target>.dep and <target>.compiled for every configured target")
}

func runClean(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	withTargets, err := cmd.Flags().GetBool("targets")
	if err != nil {
		return fmt.Errorf("failed to get targets flag: %w", err)
	}
	cache, err := toolrun.OpenDiskCache("deqpkit")
	if err != nil {
		return fmt.Errorf("failed to open report cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop report cache: %w", err)
	}
	s.printf("report cache cleared\n")

	if !withTargets {
		return nil
	}
	for _, t := range closure.TargetsFromMap(s.cfg.Build.Targets) {
		for _, path := range []string{t.DepFile(), t.CompiledFile()} {
			err := os.Remove(path)
			switch {
			case err == nil:
				s.printf("removed %s\n", path)
			case errors.Is(err, os.ErrNotExist):
			default:
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}
	return nil
}
