// Package trace records spans around deqpkit commands, batches and individual
// tool runs so slow or stuck compilations can be located after the fact.
//
// Tracing is off unless requested on the command line:
//
//	deqpkit build --trace=- --trace-level=job all
//
// A tracer travels with the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeBatch, "build", 0)
//	defer span.End("")
//
// Levels select how deep spans are emitted:
//
//   - LevelOff: nothing
//   - LevelCommand: one span per CLI command
//   - LevelBatch: plus batch boundaries
//   - LevelJob: plus one span per job
//   - LevelDebug: plus individual tool invocations
package trace
