package recommend

import (
	"regexp"
	"strings"
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	lineCommentRe   = regexp.MustCompile(`(?m)^\s*(//|#).*$`)
	inlineCommentRe = regexp.MustCompile(`([}\]"0-9],?)\s*(//|#)[^"\n]*$`)
)

// Sanitize strips the decorations chat models wrap around JSON output:
// markdown code fences, trailing commas before closing brackets, and line
// comments. The result should be parseable JSON if the model followed the
// format at all.
func Sanitize(raw string) string {
	out := strings.TrimSpace(raw)

	if m := fenceRe.FindStringSubmatch(out); m != nil {
		out = m[1]
	}
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")

	out = lineCommentRe.ReplaceAllString(out, "")

	var cleaned []string
	for _, line := range strings.Split(out, "\n") {
		cleaned = append(cleaned, inlineCommentRe.ReplaceAllString(line, "$1"))
	}
	out = strings.Join(cleaned, "\n")

	out = trailingCommaRe.ReplaceAllString(out, "$1")

	return strings.TrimSpace(out)
}
