package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deqpkit/internal/closure"
	"deqpkit/internal/toolrun"
)

var buildCmd = &cobra.Command{
	Use:   "build [none|deps|build|<target>] [target]",
	Short: "Resolve dependencies and compile the configured build targets",
	Long: `Build the targets listed in [build.targets] of deqpkit.toml.

  deqpkit build              resolve and compile every target
  deqpkit build deps [t]     only write <t>.dep with closurebuilder
  deqpkit build build [t]    only compile from an existing <t>.dep
  deqpkit build <t>          resolve and compile one target

Compiler output goes to <target>.compiled; a final verdict sums all of them.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Duration("timeout", 0, "time bound per tool run; default from [compiler].timeout")
	buildCmd.Flags().Bool("cache", false, "reuse reports of unchanged inputs")
}

// buildPlan says which steps run for which targets.
type buildPlan struct {
	deps    bool
	compile bool
	target  string // empty means every target
}

func parseBuildArgs(args []string) (buildPlan, error) {
	if len(args) == 0 {
		return buildPlan{deps: true, compile: true}, nil
	}
	switch args[0] {
	case "none", "all":
		if len(args) > 1 {
			return buildPlan{}, fmt.Errorf("%q takes no target", args[0])
		}
		return buildPlan{deps: true, compile: true}, nil
	case "deps":
		return buildPlan{deps: true, target: optionalArg(args)}, nil
	case "build":
		return buildPlan{compile: true, target: optionalArg(args)}, nil
	default:
		if len(args) > 1 {
			return buildPlan{}, fmt.Errorf("unknown build mode %q", args[0])
		}
		return buildPlan{deps: true, compile: true, target: args[0]}, nil
	}
}

func optionalArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}

func runBuild(cmd *cobra.Command, args []string) error {
	plan, err := parseBuildArgs(args)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	if !cmd.Flags().Changed("cache") {
		useCache = s.cfg.Cache.Enabled
	}

	targets := closure.TargetsFromMap(s.cfg.Build.Targets)
	if len(targets) == 0 {
		return errors.New("no build targets configured in [build.targets]")
	}
	if plan.target != "" {
		t, err := closure.SelectTarget(targets, plan.target)
		if err != nil {
			return err
		}
		targets = []closure.Target{t}
	}

	batch, err := s.batch(timeout, useCache)
	if err != nil {
		return err
	}
	builder := s.cfg.Builder()
	var res toolrun.Result
	for _, t := range targets {
		if plan.deps {
			done := s.step("deps:" + t.Name)
			step, err := batch.Run(s.ctx, []toolrun.Job{builder.DepsJob(t)}, res.Totals)
			done("")
			res = mergeResults(res, step)
			if err != nil {
				return err
			}
			if failed := step.Outcomes[0].Err; failed != nil {
				s.log.Warn("skipping target after dependency failure", zap.String("target", t.Name), zap.Error(failed))
				continue
			}
		}
		if !plan.compile {
			continue
		}
		deps, err := closure.ReadDepsFile(t.DepFile())
		if err != nil {
			return err
		}
		if len(deps) == 0 {
			return fmt.Errorf("%s lists no sources for %s", t.DepFile(), t.Namespace)
		}
		done := s.step("compile:" + t.Name)
		step, err := batch.Run(s.ctx, []toolrun.Job{builder.TargetJob(t, deps)}, res.Totals)
		done(fmt.Sprintf("%d sources", len(deps)))
		res = mergeResults(res, step)
		if err != nil {
			return err
		}
	}
	return s.finish(res)
}

// mergeResults appends step's outcomes to acc. step.Totals already include
// acc's because each run starts from the previous totals.
func mergeResults(acc, step toolrun.Result) toolrun.Result {
	acc.Outcomes = append(acc.Outcomes, step.Outcomes...)
	acc.Totals = step.Totals
	for _, stage := range []toolrun.Stage{toolrun.StageCache, toolrun.StageCompile, toolrun.StageReport} {
		if step.Timings.Has(stage) {
			acc.Timings.Add(stage, step.Timings.Duration(stage))
		}
	}
	return acc
}
