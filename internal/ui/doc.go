// Package ui provides semantic text formatting for CLI output.
//
// This package defines formatters for different types of content that render
// appropriately based on terminal capabilities. When colors are available,
// content is colorized. When NO_COLOR is set or the terminal doesn't support
// colors, text-based decorations (backticks, quotes) are used instead.
//
// Use the appropriate formatter for the content type:
//
//	ui.Code.Sprint("koru login")             // Commands
//	ui.Success.Sprint("✓")                    // Success indicators
//	ui.Error.Sprint("✗")                      // Error indicators
//	ui.Info.Sprint("→")                       // Informational hints
//	ui.Highlight.Sprint("user@example.com")  // User values
//
// MaskValue hides secret values in listings unless the user passes --show.
package ui
