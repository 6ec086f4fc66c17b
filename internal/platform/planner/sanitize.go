package planner

import (
	"regexp"
	"strings"
)

var (
	markupRuns = regexp.MustCompile(`[#*]+`)
	blankLines = regexp.MustCompile(`\n\n+`)
)

// Sanitize converts the model's markdown-flavored output into a plain HTML
// fragment: heading and emphasis markers are stripped, blank lines become
// paragraph breaks, and remaining newlines become line breaks. The trailing
// unclosed <p> matches the fragment format existing reports were stored
// with, so stored plan text stays uniform.
func Sanitize(text string) string {
	text = markupRuns.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = blankLines.ReplaceAllString(text, "</p><p>")
	text = strings.ReplaceAll(text, "\n", "<br>")
	return "<p>" + text + "<p>"
}
