// Package toolrun runs external tools and writes their output into report
// files. A Batch executes Jobs one after another; each job owns one report,
// made of an optional header followed by one section per tool invocation. The
// last "N error(s), M warning(s)" line of each section is parsed and summed
// into batch Totals.
package toolrun
