package paper

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"papercast/internal/logging"
)

// frontMatterSnippet limits how much of the raw text is handed to the
// metadata extractor. The front matter always sits in the first pages.
const frontMatterSnippet = 4000

// Progress receives parse-stage progress as a fraction in [0,1].
type Progress func(fraction float64, message string)

// MetadataExtractor recovers title, authors, and abstract from the raw
// front-matter text. A failing extractor is not fatal; the parser falls
// back to its line heuristic.
type MetadataExtractor interface {
	ExtractFrontMatter(ctx context.Context, snippet string) (FrontMatter, error)
}

// Config wires the parser's collaborators.
type Config struct {
	HTTPClient      *http.Client
	ExtractCommand  string
	Metadata        MetadataExtractor
	DownloadTimeout time.Duration
	Logger          *slog.Logger
}

// Parser downloads an arXiv paper and produces a structured Document.
type Parser struct {
	httpClient      *http.Client
	extractCommand  string
	metadata        MetadataExtractor
	downloadTimeout time.Duration
	logger          *slog.Logger
	commandRunner   func(ctx context.Context, name string, args ...string) error
}

// NewParser constructs a parser from the supplied configuration.
func NewParser(cfg Config) *Parser {
	parser := &Parser{
		httpClient:      cfg.HTTPClient,
		extractCommand:  strings.TrimSpace(cfg.ExtractCommand),
		metadata:        cfg.Metadata,
		downloadTimeout: cfg.DownloadTimeout,
		logger:          cfg.Logger,
	}
	if parser.httpClient == nil {
		parser.httpClient = &http.Client{}
	}
	if parser.extractCommand == "" {
		parser.extractCommand = DefaultExtractCommand
	}
	if parser.logger == nil {
		parser.logger = logging.NewNop()
	}
	return parser
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Parser) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	p.commandRunner = runner
}

// Parse downloads the referenced paper into workDir, extracts its text,
// and splits it into canonical sections.
func (p *Parser) Parse(ctx context.Context, reference, workDir string, report Progress) (*Document, error) {
	if report == nil {
		report = func(float64, string) {}
	}

	report(0.05, "Downloading paper")
	pdfPath, err := downloadPDF(ctx, p.httpClient, reference, workDir, p.downloadTimeout)
	if err != nil {
		return nil, err
	}

	report(0.4, "Extracting text")
	rawText, err := p.extractText(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	report(0.7, "Cleaning text")
	tagged, latex := extractLatex(rawText)
	cleaned := cleanText(tagged)

	report(0.8, "Identifying sections")
	front := p.extractFrontMatter(ctx, rawText)
	front, sections := splitSections(cleaned, front)

	doc := &Document{
		Reference: reference,
		PDFPath:   pdfPath,
		Title:     front.Title,
		Authors:   front.Authors,
		Abstract:  front.Abstract,
		Sections:  sections,
		Latex:     latex,
	}
	report(1.0, "Paper parsed")
	p.logger.Info(
		"paper parsed",
		logging.String("title", doc.Title),
		logging.Int("sections", len(doc.Sections)),
		logging.Int("latex_expressions", len(doc.Latex)),
	)
	return doc, nil
}

// extractFrontMatter asks the configured metadata extractor first and falls
// back to empty front matter, which makes splitSections run its heuristic.
func (p *Parser) extractFrontMatter(ctx context.Context, rawText string) FrontMatter {
	if p.metadata == nil {
		return FrontMatter{}
	}
	snippet := rawText
	if len(snippet) > frontMatterSnippet {
		snippet = snippet[:frontMatterSnippet]
	}
	front, err := p.metadata.ExtractFrontMatter(ctx, snippet)
	if err != nil {
		p.logger.Warn("front matter extraction failed, using heuristic", logging.Error(err))
		return FrontMatter{}
	}
	front.Title = strings.TrimSpace(front.Title)
	front.Authors = strings.TrimSpace(front.Authors)
	front.Abstract = strings.TrimSpace(front.Abstract)
	return front
}

// CleanupPDF removes the downloaded PDF once parsing is done.
func CleanupPDF(doc *Document) {
	if doc == nil || doc.PDFPath == "" {
		return
	}
	_ = os.Remove(doc.PDFPath)
}
