// Package split fans one HTML test page out into several, each running a
// sub-range of the test cases.
package split
