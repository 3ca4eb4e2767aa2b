// Package observ measures the steps of a command for --timings.
package observ
