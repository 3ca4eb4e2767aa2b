// Package modconv converts deqp sources from require.js define() modules to
// Closure goog.provide/goog.require modules.
package modconv
