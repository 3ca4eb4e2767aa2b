// Package ui holds the terminal views: batch progress and the file menu.
package ui
