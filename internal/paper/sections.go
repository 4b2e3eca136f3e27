package paper

import (
	"regexp"
	"strings"
)

const (
	sectionAbstract   = "abstract"
	sectionReferences = "references"
	sectionAppendix   = "appendix"
)

var headingPatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{sectionAbstract, regexp.MustCompile(`(?i)^\s*abstract\s*$`)},
	{SectionIntroduction, regexp.MustCompile(`(?i)^\s*\d*\.?\s*introduction\s*$`)},
	{SectionMethodology, regexp.MustCompile(`(?i)^\s*\d*\.?\s*(method(ology|s)?|approach|model|framework|proposed\s+(method|approach|system))\s*$`)},
	{SectionResults, regexp.MustCompile(`(?i)^\s*\d*\.?\s*(results?|experiments?|evaluation|findings)\s*$`)},
	{SectionDiscussion, regexp.MustCompile(`(?i)^\s*\d*\.?\s*(discussion|analysis|limitations?)\s*$`)},
	{SectionConclusion, regexp.MustCompile(`(?i)^\s*\d*\.?\s*(conclusion|conclusions|summary|concluding\s+remarks|future\s+work)\s*$`)},
	{sectionReferences, regexp.MustCompile(`(?i)^\s*\d*\.?\s*(references|bibliography)\s*$`)},
	{sectionAppendix, regexp.MustCompile(`(?i)^\s*\d*\.?\s*(appendix|appendices|supplementary)\s*$`)},
	{SectionRelatedWork, regexp.MustCompile(`(?i)^\s*\d*\.?\s*(related\s+work|background|literature\s+review|prior\s+work)\s*$`)},
}

var numberedHeadingPattern = regexp.MustCompile(`^\s*\d+\.?\s+\S`)

var abstractHeadingPattern = regexp.MustCompile(`(?i)^\s*abstract\s*$`)

var sectionKeywords = map[string][]string{
	SectionIntroduction: {"introduction", "overview", "motivation", "background"},
	SectionMethodology: {
		"method", "model", "framework", "approach", "formulation",
		"simulation", "setup", "implementation", "algorithm", "data",
		"observations", "numerical", "equations", "formalism",
		"architecture", "design", "procedure", "technique",
	},
	SectionResults: {
		"result", "experiment", "evaluation", "finding", "performance",
		"outcome", "comparison", "benchmark", "ablation", "analysis",
		"measurement",
	},
	SectionDiscussion: {
		"discussion", "interpretation", "implication", "limitation",
		"caveat", "consideration",
	},
	SectionConclusion: {
		"conclusion", "summary", "future", "outlook", "closing",
		"concluding",
	},
	SectionRelatedWork: {
		"related", "prior", "literature", "previous", "review",
		"context", "state of the art",
	},
}

// identifyHeading returns the canonical section key if the line looks like
// a heading, or empty.
func identifyHeading(line string) string {
	stripped := strings.TrimSpace(line)
	// Headings are short.
	if stripped == "" || len(stripped) > 80 {
		return ""
	}
	for _, entry := range headingPatterns {
		if entry.pattern.MatchString(stripped) {
			return entry.key
		}
	}
	if numberedHeadingPattern.MatchString(stripped) && len(stripped) < 60 {
		return guessSectionKey(stripped)
	}
	return ""
}

// guessSectionKey maps an unrecognized numbered heading to the canonical
// section with the best keyword overlap. Unknown headings land in
// methodology so their content is not lost.
func guessSectionKey(heading string) string {
	lower := strings.ToLower(heading)
	bestKey := ""
	bestScore := 0
	for key, keywords := range sectionKeywords {
		score := 0
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}
	if bestScore == 0 {
		return SectionMethodology
	}
	return bestKey
}

// FrontMatter holds the title, authors, and abstract of a paper.
type FrontMatter struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
}

// extractFrontMatterHeuristic recovers title and authors from the lines
// before the first recognizable heading. Title and author block are
// separated by the first blank line.
func extractFrontMatterHeuristic(lines []string) (title, authors string, consumed int) {
	var titleLines, authorLines []string
	phase := "title"

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		consumed = i

		if identifyHeading(stripped) != "" {
			break
		}
		switch phase {
		case "title":
			if stripped == "" {
				if len(titleLines) > 0 {
					phase = "authors"
				}
				continue
			}
			titleLines = append(titleLines, stripped)
		case "authors":
			if stripped == "" && len(authorLines) > 0 {
				return strings.Join(titleLines, " "), strings.Join(authorLines, ", "), consumed
			}
			if stripped != "" {
				authorLines = append(authorLines, stripped)
			}
		}
	}
	return strings.Join(titleLines, " "), strings.Join(authorLines, ", "), consumed
}

func findAbstractLine(lines []string) int {
	for i, line := range lines {
		if abstractHeadingPattern.MatchString(strings.TrimSpace(line)) {
			return i
		}
	}
	return -1
}

// splitSections walks the cleaned text line by line, collecting content
// under the most recent heading. The supplied front matter (from the
// metadata extractor or the heuristic) decides where body scanning starts.
func splitSections(text string, front FrontMatter) (FrontMatter, []Section) {
	lines := strings.Split(text, "\n")
	collected := make(map[string][]string)

	skipTo := 0
	if front.Title != "" {
		if absIdx := findAbstractLine(lines); absIdx >= 0 {
			skipTo = absIdx + 1
			if front.Abstract != "" {
				// Jump past the abstract body to the next real heading.
				for j := absIdx + 1; j < len(lines); j++ {
					if heading := identifyHeading(lines[j]); heading != "" && heading != sectionAbstract {
						skipTo = j
						break
					}
				}
			}
		}
	} else {
		front.Title, front.Authors, skipTo = extractFrontMatterHeuristic(lines)
	}

	currentKey := ""
	for _, line := range lines[skipTo:] {
		if heading := identifyHeading(line); heading != "" {
			// References and appendix content are never read aloud.
			if heading == sectionReferences || heading == sectionAppendix {
				currentKey = ""
				continue
			}
			if heading == sectionAbstract && front.Abstract != "" {
				currentKey = ""
				continue
			}
			currentKey = heading
			if _, ok := collected[currentKey]; !ok {
				collected[currentKey] = nil
			}
			continue
		}
		if currentKey != "" {
			collected[currentKey] = append(collected[currentKey], line)
		}
	}

	if front.Abstract == "" {
		front.Abstract = strings.TrimSpace(strings.Join(collected[sectionAbstract], "\n"))
	}
	delete(collected, sectionAbstract)

	var sections []Section
	for _, key := range sectionOrder {
		body := strings.TrimSpace(strings.Join(collected[key], "\n"))
		if body == "" {
			continue
		}
		sections = append(sections, Section{Key: key, Text: body})
	}
	return front, sections
}
