package paper

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	citationPattern     = regexp.MustCompile(`\[[\d,;\s–\-]+\]`)
	figureRefPattern    = regexp.MustCompile(`(?i)(Fig(ure|\.)?|Table|Eq(uation|\.)?)\s*\.?\s*\d+(\.\d+)*[a-z]?`)
	latexInlinePattern  = regexp.MustCompile(`\$([^$]+)\$`)
	latexDisplayPattern = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	headerFooterPattern = regexp.MustCompile(`(?im)^(arXiv:\d{4}\.\d{4,5}|Preprint\.?\s*Under\s+review|Published\s+.+).*$`)
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// extractLatex lifts inline and display math out of the text, leaving
// <<LATEX:n>> placeholders behind. The collected expressions are converted
// to spoken English later in the pipeline.
func extractLatex(text string) (string, []string) {
	var expressions []string
	replace := func(pattern *regexp.Regexp, input string) string {
		return pattern.ReplaceAllStringFunc(input, func(match string) string {
			groups := pattern.FindStringSubmatch(match)
			expr := strings.TrimSpace(groups[1])
			idx := len(expressions)
			expressions = append(expressions, expr)
			return fmt.Sprintf(" <<LATEX:%d>> ", idx)
		})
	}
	text = replace(latexDisplayPattern, text)
	text = replace(latexInlinePattern, text)
	return text, expressions
}

// cleanText removes citations, figure references, and running headers, then
// normalizes whitespace.
func cleanText(text string) string {
	text = headerFooterPattern.ReplaceAllString(text, "")
	text = citationPattern.ReplaceAllString(text, "")
	text = figureRefPattern.ReplaceAllString(text, "")
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = multiNewlinePattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
