// Package scaffold creates the JavaScript module and HTML page for a new
// gles3 functional test.
package scaffold
