// Package postprocess cleans and polishes raw dialogue before synthesis.
// It normalizes speaker labels, strips residual LaTeX and markdown, injects
// sparse conversational fillers, and renders the timestamped transcript.
package postprocess

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"papercast/internal/script"
)

const (
	// SpeakerHost and SpeakerExpert are the two canonical voices.
	SpeakerHost   = "HOST"
	SpeakerExpert = "EXPERT"

	fillerProbability = 0.15
)

var (
	speakerPattern = regexp.MustCompile(`^(Host|HOST|Expert|EXPERT|Interviewer|Guest|Speaker\s*[12AB])\s*[:：]\s*`)

	latexResidualPattern   = regexp.MustCompile(`\\[a-zA-Z]+(\{[^}]*\})*|\$[^$]+\$|\$\$[^$]+\$\$`)
	markdownPattern        = regexp.MustCompile(`(\*{1,3}|_{1,3}|#{1,6}\s)`)
	citationBracketPattern = regexp.MustCompile(`\[\d[\d,;\s\-]*\]`)
	citationParenPattern   = regexp.MustCompile(`\([A-Z][a-zéèêë]+(\s+(et\s+al\.?|and|&)\s+[A-Z][a-zéèêë]+)*,?\s*\d{4}[a-z]?\)`)
	figureRefPattern       = regexp.MustCompile(`(?i)(as\s+(shown|seen|illustrated|depicted)\s+in\s+)?(Fig(ure|\.)?|Table|Eq(uation|\.)?)\s*\.?\s*\d+(\.\d+)*[a-z]?`)

	spaceRunPattern    = regexp.MustCompile(`\s{2,}`)
	spacedPunctPattern = regexp.MustCompile(`\s+([.,;:!?])`)
	punctRunPattern    = regexp.MustCompile(`([.,;:!?]){2,}`)
)

var hostFillers = []string{
	"Hmm, interesting.",
	"Right, okay.",
	"Got it.",
	"That makes sense.",
	"Oh wow.",
}

var expertFillers = []string{
	"That's a great question.",
	"So basically,",
	"Right, so",
	"Yeah, exactly.",
	"Good point.",
}

// Turn is one speaker's utterance.
type Turn struct {
	Speaker string
	Text    string
}

// Processed is the polished script ready for synthesis.
type Processed struct {
	Title   string
	Authors string
	Summary string
	Turns   []Turn
	// Markers maps a turn index to the segment title that starts there.
	Markers map[int]string
}

// Process parses the generated script into turns, cleans each turn, and
// injects occasional fillers. The seed makes filler placement reproducible
// for a given job.
func Process(s script.Script, title, authors string, seed int64) Processed {
	rng := rand.New(rand.NewSource(seed))
	var turns []Turn
	markers := make(map[int]string)

	appendBlock := func(block, marker string, fillers bool) {
		parsed := ParseDialogue(block)
		cleaned := make([]Turn, 0, len(parsed))
		for _, turn := range parsed {
			turn.Text = cleanTurnText(turn.Text)
			if turn.Text == "" {
				continue
			}
			if fillers {
				turn = maybeInjectFiller(turn, rng)
			}
			cleaned = append(cleaned, turn)
		}
		if len(cleaned) > 0 {
			markers[len(turns)] = marker
		}
		turns = append(turns, cleaned...)
	}

	appendBlock(s.Intro, "Introduction", true)
	for _, segment := range s.Segments {
		appendBlock(segment.Dialogue, segment.SectionTitle, true)
	}
	appendBlock(s.Outro, "Closing", false)

	return Processed{
		Title:   title,
		Authors: authors,
		Summary: s.Summary,
		Turns:   turns,
		Markers: markers,
	}
}

// ParseDialogue splits a block of text into speaker turns. Lines without a
// speaker prefix continue the current turn.
func ParseDialogue(text string) []Turn {
	var turns []Turn
	currentSpeaker := ""
	var currentLines []string

	flush := func() {
		if currentSpeaker != "" && len(currentLines) > 0 {
			turns = append(turns, Turn{Speaker: currentSpeaker, Text: strings.Join(currentLines, " ")})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if speaker, rest, ok := normalizeSpeaker(line); ok {
			flush()
			currentSpeaker = speaker
			currentLines = nil
			if rest != "" {
				currentLines = []string{rest}
			}
			continue
		}
		if currentSpeaker != "" {
			currentLines = append(currentLines, line)
		}
	}
	flush()
	return turns
}

func normalizeSpeaker(line string) (speaker, rest string, ok bool) {
	match := speakerPattern.FindStringSubmatch(line)
	if match == nil {
		return "", "", false
	}
	label := strings.ToUpper(strings.TrimSpace(match[1]))
	rest = strings.TrimSpace(line[len(match[0]):])
	switch label {
	case "HOST", "INTERVIEWER", "SPEAKER 1", "SPEAKER A":
		return SpeakerHost, rest, true
	default:
		return SpeakerExpert, rest, true
	}
}

// cleanTurnText removes LaTeX residue, markdown, citations, and figure
// references, then tidies whitespace and punctuation.
func cleanTurnText(text string) string {
	text = latexResidualPattern.ReplaceAllString(text, "")
	text = markdownPattern.ReplaceAllString(text, "")
	text = citationBracketPattern.ReplaceAllString(text, "")
	text = citationParenPattern.ReplaceAllString(text, "")
	text = figureRefPattern.ReplaceAllString(text, "")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	text = spacedPunctPattern.ReplaceAllString(text, "$1")
	text = punctRunPattern.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// maybeInjectFiller occasionally prepends a natural filler phrase.
func maybeInjectFiller(turn Turn, rng *rand.Rand) Turn {
	if rng.Float64() > fillerProbability {
		return turn
	}
	fillers := expertFillers
	if turn.Speaker == SpeakerHost {
		fillers = hostFillers
	}
	lower := strings.ToLower(turn.Text)
	for _, filler := range fillers {
		if strings.HasPrefix(lower, strings.ToLower(strings.TrimRight(filler, ",. "))) {
			return turn
		}
	}

	filler := fillers[rng.Intn(len(fillers))]
	if strings.HasSuffix(filler, ",") && len(turn.Text) > 0 {
		turn.Text = filler + " " + strings.ToLower(turn.Text[:1]) + turn.Text[1:]
	} else {
		turn.Text = filler + " " + turn.Text
	}
	return turn
}

// Transcript renders the processed script as readable text with estimated
// timestamps (roughly three seconds per sentence).
func (p Processed) Transcript() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("PODCAST TRANSCRIPT: %s\n", p.Title))
	lines = append(lines, fmt.Sprintf("Authors: %s\n", p.Authors))
	lines = append(lines, strings.Repeat("=", 60)+"\n")

	elapsed := 0
	for i, turn := range p.Turns {
		if label, ok := p.Markers[i]; ok {
			lines = append(lines, "\n"+strings.Repeat("-", 40))
			lines = append(lines, fmt.Sprintf("  [%s] %s", formatTimestamp(elapsed), label))
			lines = append(lines, strings.Repeat("-", 40)+"\n")
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s\n", formatTimestamp(elapsed), turn.Speaker, turn.Text))
		elapsed += estimateSeconds(turn.Text)
	}
	return strings.Join(lines, "\n")
}

func estimateSeconds(text string) int {
	sentences := strings.Count(text, ".") + strings.Count(text, "?") + strings.Count(text, "!")
	if sentences < 1 {
		sentences = 1
	}
	return sentences * 3
}

func formatTimestamp(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
