package main

import (
	"deqpkit/internal/observ"
	"deqpkit/internal/toolrun"
)

// recordStageTimings adds the batch's per-stage totals to the command timer.
func recordStageTimings(timer *observ.Timer, timings toolrun.Timings) {
	for _, stage := range []toolrun.Stage{toolrun.StageCache, toolrun.StageCompile, toolrun.StageReport} {
		if timings.Has(stage) {
			timer.Record(string(stage), timings.Duration(stage), "")
		}
	}
}
