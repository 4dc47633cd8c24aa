// Package size measures text in bytes for the playground's file size labels.
package size

import (
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	kilobyte = 1024
	megabyte = 1024 * kilobyte
)

var printer = message.NewPrinter(language.English)

// ByteSize returns the number of bytes needed to encode text as UTF-8. Each
// byte that is not part of a valid sequence counts as U+FFFD, the way an
// editor decoding the same bytes would show it.
func ByteSize(text string) int {
	if utf8.ValidString(text) {
		return len(text)
	}
	n := 0
	for _, r := range text {
		n += utf8.RuneLen(r)
	}
	return n
}

// Format renders a byte count for display, e.g. "812 B", "1.21 kB".
func Format(n int) string {
	switch {
	case n < kilobyte:
		return printer.Sprintf("%d B", n)
	case n < megabyte:
		return printer.Sprintf("%.2f kB", float64(n)/kilobyte)
	default:
		return printer.Sprintf("%.2f MB", float64(n)/megabyte)
	}
}

// Savings returns the percentage of source bytes removed in result.
// A zero source yields zero.
func Savings(source, result int) float64 {
	if source <= 0 {
		return 0
	}
	return float64(source-result) / float64(source) * 100
}
