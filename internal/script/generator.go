package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"papercast/internal/logging"
	"papercast/internal/paper"
	"papercast/internal/services"
)

// Progress receives dialogue-stage progress as a fraction in [0,1].
type Progress func(fraction float64, message string)

// Completer is the slice of the chat client the generator needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Segment is one section's worth of HOST/EXPERT dialogue.
type Segment struct {
	SectionTitle string
	Dialogue     string
}

// Script is the complete episode assembled from all generation calls.
type Script struct {
	Summary  string
	Intro    string
	Segments []Segment
	Outro    string
}

// Text concatenates intro, segment blocks, and outro into a single script.
func (s Script) Text() string {
	parts := []string{s.Intro}
	for _, segment := range s.Segments {
		parts = append(parts, fmt.Sprintf("\n\n--- %s ---\n\n", strings.ToUpper(segment.SectionTitle)))
		parts = append(parts, segment.Dialogue)
	}
	parts = append(parts, s.Outro)
	return strings.Join(parts, "\n")
}

// dialogueSections are discussed in presentation order. Related work is
// parsed but not turned into dialogue; it rarely survives a 30 minute
// episode budget.
var dialogueSections = []struct {
	display string
	key     string
}{
	{"Abstract", "abstract"},
	{"Introduction", paper.SectionIntroduction},
	{"Methodology", paper.SectionMethodology},
	{"Results", paper.SectionResults},
	{"Discussion", paper.SectionDiscussion},
	{"Conclusion", paper.SectionConclusion},
}

// Generator turns a parsed paper into a podcast script through a sequence
// of focused chat completion calls.
type Generator struct {
	client          Completer
	maxSectionChars int
	logger          *slog.Logger
}

// NewGenerator constructs a generator. maxSectionChars bounds how much of
// each section is sent to the model.
func NewGenerator(client Completer, maxSectionChars int, logger *slog.Logger) *Generator {
	if maxSectionChars <= 0 {
		maxSectionChars = 6000
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{client: client, maxSectionChars: maxSectionChars, logger: logger}
}

// Generate runs summary, per-section dialogue, and takeaway generation,
// then assembles the full script.
func (g *Generator) Generate(ctx context.Context, doc *paper.Document, report Progress) (Script, error) {
	if report == nil {
		report = func(float64, string) {}
	}
	if doc == nil {
		return Script{}, services.Wrap(services.ErrValidation, "script", "generate", "no parsed paper", nil)
	}

	report(0.05, "Summarizing paper")
	summary, err := g.generateSummary(ctx, doc)
	if err != nil {
		return Script{}, err
	}
	report(0.15, "Summary generated")

	sections := g.nonEmptySections(doc)
	total := len(sections)
	if total == 0 {
		return Script{}, services.Wrap(services.ErrValidation, "script", "generate", "paper has no usable sections", nil)
	}

	segments := make([]Segment, 0, total)
	for idx, section := range sections {
		report(0.15+0.70*float64(idx)/float64(total), fmt.Sprintf("Writing dialogue for %s", section.display))
		dialogue, err := g.generateDialogue(ctx, section.display, section.text, summary)
		if err != nil {
			return Script{}, err
		}
		segments = append(segments, Segment{SectionTitle: section.display, Dialogue: dialogue})
	}
	report(0.85, "Section dialogues generated")

	report(0.90, "Writing closing takeaway")
	takeaway, err := g.client.Complete(ctx, takeawaySystemPrompt, "Paper summary: "+summary)
	if err != nil {
		return Script{}, fmt.Errorf("generate takeaway: %w", err)
	}

	report(0.95, "Assembling script")
	script := Script{
		Summary:  summary,
		Intro:    fmt.Sprintf(introTemplate, doc.Title, shortenAuthors(doc.Authors), summary),
		Segments: segments,
		Outro:    fmt.Sprintf(outroTemplate, takeaway),
	}
	report(1.0, "Script complete")
	g.logger.Info(
		"script generated",
		logging.Int("segments", len(segments)),
		logging.Int("script_chars", len(script.Text())),
	)
	return script, nil
}

func (g *Generator) generateSummary(ctx context.Context, doc *paper.Document) (string, error) {
	pieces := []string{doc.Abstract, doc.SectionText(paper.SectionIntroduction), doc.SectionText(paper.SectionConclusion)}
	var nonEmpty []string
	for _, piece := range pieces {
		if strings.TrimSpace(piece) != "" {
			nonEmpty = append(nonEmpty, piece)
		}
	}
	input := strings.Join(nonEmpty, "\n\n")
	if input == "" {
		input = "No abstract available."
	}
	input = truncate(input, g.maxSectionChars*2)

	summary, err := g.client.Complete(ctx, summarySystemPrompt, "Paper text:\n\n"+input)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

type sectionInput struct {
	display string
	key     string
	text    string
}

func (g *Generator) nonEmptySections(doc *paper.Document) []sectionInput {
	var out []sectionInput
	for _, entry := range dialogueSections {
		text := doc.Abstract
		if entry.key != "abstract" {
			text = doc.SectionText(entry.key)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, sectionInput{display: entry.display, key: entry.key, text: text})
	}
	return out
}

func (g *Generator) generateDialogue(ctx context.Context, sectionTitle, sectionText, summary string) (string, error) {
	userPrompt := fmt.Sprintf(`Here is an example of the style I want:

%s

Paper summary (for context): %s

Now generate a podcast dialogue for the following section.

Section title: %s
Section text:
%s

Generate an engaging HOST/EXPERT dialogue covering the key ideas in this section. Remember to follow the persona and formatting rules from the system prompt.`,
		fewShotExample, summary, sectionTitle, truncate(sectionText, g.maxSectionChars))

	dialogue, err := g.client.Complete(ctx, dialogueSystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generate dialogue for %s: %w", sectionTitle, err)
	}
	return strings.TrimSpace(dialogue), nil
}

// shortenAuthors keeps the intro friendly when the author list runs long.
func shortenAuthors(authors string) string {
	if len(authors) <= 120 {
		return authors
	}
	first := strings.TrimSpace(strings.Split(authors, ",")[0])
	return first + " and colleagues"
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit]
}
