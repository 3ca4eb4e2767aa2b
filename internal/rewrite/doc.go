// Package rewrite applies ordered text transformations to JavaScript
// sources: regex rules, JSDoc stub insertion and redundant cast removal.
package rewrite
