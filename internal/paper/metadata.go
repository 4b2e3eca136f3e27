package paper

import (
	"context"
	"fmt"

	"papercast/internal/services/llm"
)

const frontMatterPrompt = `You are an expert at parsing academic papers.
Given the raw text from the first pages of a research paper, extract
the title, authors, and abstract.

Rules:
- The title is the actual research paper title, NOT things like
  "Draft version ...", "Typeset using LATEX ...", "Preprint", or journal names.
- Authors are the people who wrote the paper. Return only the names,
  separated by commas.
- The abstract is the text immediately after the word "Abstract" (or after
  the author list if no explicit Abstract heading exists).
- If you cannot confidently identify a field, return an empty string for it.

Return ONLY a valid JSON object with exactly these keys:
{"title": "...", "authors": "...", "abstract": "..."}`

// LLMMetadata extracts front matter with a chat completion call.
type LLMMetadata struct {
	client *llm.Client
}

// NewLLMMetadata wraps the supplied client as a MetadataExtractor.
func NewLLMMetadata(client *llm.Client) *LLMMetadata {
	return &LLMMetadata{client: client}
}

func (m *LLMMetadata) ExtractFrontMatter(ctx context.Context, snippet string) (FrontMatter, error) {
	content, err := m.client.CompleteJSON(ctx, frontMatterPrompt, snippet)
	if err != nil {
		return FrontMatter{}, fmt.Errorf("front matter completion: %w", err)
	}
	var front FrontMatter
	if err := llm.DecodeJSON(content, &front); err != nil {
		return FrontMatter{}, fmt.Errorf("front matter payload: %w", err)
	}
	return front, nil
}
