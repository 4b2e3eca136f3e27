package paper

// Section keys in presentation order. References and appendix content are
// detected during splitting but never kept.
const (
	SectionIntroduction = "introduction"
	SectionRelatedWork  = "related_work"
	SectionMethodology  = "methodology"
	SectionResults      = "results"
	SectionDiscussion   = "discussion"
	SectionConclusion   = "conclusion"
)

var sectionOrder = []string{
	SectionIntroduction,
	SectionRelatedWork,
	SectionMethodology,
	SectionResults,
	SectionDiscussion,
	SectionConclusion,
}

// Section is one body section of a parsed paper.
type Section struct {
	Key  string
	Text string
}

// Document is the structured output of the parser.
type Document struct {
	Reference string
	PDFPath   string

	Title    string
	Authors  string
	Abstract string
	Sections []Section

	// Latex holds the raw expressions lifted out of the text. Position n
	// corresponds to the <<LATEX:n>> placeholder left behind.
	Latex []string
}

// SectionText returns the text of the named section, or empty.
func (d *Document) SectionText(key string) string {
	for _, section := range d.Sections {
		if section.Key == key {
			return section.Text
		}
	}
	return ""
}
