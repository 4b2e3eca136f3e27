package paper

import (
	"strings"
	"testing"
)

const samplePaper = `Deep Learning for Radio Astronomy

Jane Doe
John Smith

Abstract
We present a novel approach to source detection.

1. Introduction
Radio astronomy produces large data volumes.

2. Related Work
Earlier surveys used manual inspection.

3. Proposed Method
We train a convolutional network.

4. Experiments
The model reaches 98 percent accuracy.

5. Discussion
Failure cases involve extended sources.

6. Conclusion
Deep models automate detection.

References
Doe, J. et al. 2020.

Appendix
Extra derivations.`

func TestIdentifyHeading(t *testing.T) {
	cases := map[string]string{
		"Abstract":             sectionAbstract,
		"1. Introduction":      SectionIntroduction,
		"INTRODUCTION":         SectionIntroduction,
		"3 Methods":            SectionMethodology,
		"Approach":             SectionMethodology,
		"4. Experiments":       SectionResults,
		"Evaluation":           SectionResults,
		"5. Discussion":        SectionDiscussion,
		"Limitations":          SectionDiscussion,
		"6. Conclusions":       SectionConclusion,
		"Future Work":          SectionConclusion,
		"Related Work":         SectionRelatedWork,
		"2. Literature Review": SectionRelatedWork,
		"References":           sectionReferences,
		"Appendix":             sectionAppendix,
	}
	for line, want := range cases {
		if got := identifyHeading(line); got != want {
			t.Errorf("identifyHeading(%q) = %q, want %q", line, got, want)
		}
	}

	for _, line := range []string{
		"",
		"This is an ordinary sentence that happens to be on its own line for emphasis and flow.",
		"The model reaches 98 percent accuracy.",
	} {
		if got := identifyHeading(line); got != "" {
			t.Errorf("identifyHeading(%q) = %q, want no heading", line, got)
		}
	}
}

func TestGuessSectionKeyPrefersKeywordOverlap(t *testing.T) {
	cases := map[string]string{
		"2. Data and Observations": SectionMethodology,
		"4. Benchmark Comparison":  SectionResults,
		"7. Outlook":               SectionConclusion,
		"3. Prior Literature":      SectionRelatedWork,
		"9. Zebra Farming":         SectionMethodology,
	}
	for heading, want := range cases {
		if got := guessSectionKey(heading); got != want {
			t.Errorf("guessSectionKey(%q) = %q, want %q", heading, got, want)
		}
	}
}

func TestSplitSectionsWithHeuristicFrontMatter(t *testing.T) {
	front, sections := splitSections(samplePaper, FrontMatter{})

	if front.Title != "Deep Learning for Radio Astronomy" {
		t.Fatalf("unexpected title: %q", front.Title)
	}
	if !strings.Contains(front.Authors, "Jane Doe") || !strings.Contains(front.Authors, "John Smith") {
		t.Fatalf("unexpected authors: %q", front.Authors)
	}
	if !strings.Contains(front.Abstract, "source detection") {
		t.Fatalf("unexpected abstract: %q", front.Abstract)
	}

	keys := make([]string, 0, len(sections))
	for _, section := range sections {
		keys = append(keys, section.Key)
	}
	want := []string{
		SectionIntroduction, SectionRelatedWork, SectionMethodology,
		SectionResults, SectionDiscussion, SectionConclusion,
	}
	if len(keys) != len(want) {
		t.Fatalf("unexpected section keys: %v", keys)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("section %d = %q, want %q (all: %v)", i, keys[i], key, keys)
		}
	}

	joined := front.Abstract
	for _, section := range sections {
		joined += "\n" + section.Text
	}
	if strings.Contains(joined, "Doe, J. et al.") {
		t.Fatal("references content leaked into sections")
	}
	if strings.Contains(joined, "Extra derivations") {
		t.Fatal("appendix content leaked into sections")
	}
}

func TestSplitSectionsKeepsProvidedFrontMatter(t *testing.T) {
	provided := FrontMatter{
		Title:    "Extracted Title",
		Authors:  "A. Author, B. Author",
		Abstract: "Extracted abstract.",
	}
	front, sections := splitSections(samplePaper, provided)

	if front != provided {
		t.Fatalf("front matter was rewritten: %#v", front)
	}
	if len(sections) == 0 {
		t.Fatal("expected body sections")
	}
	for _, section := range sections {
		if strings.Contains(section.Text, "We present a novel approach") {
			t.Fatalf("abstract body leaked into section %s", section.Key)
		}
	}
}
