package pipeline

import (
	"papercast/internal/paper"
	"papercast/internal/postprocess"
	"papercast/internal/script"
)

// Request captures a submission before any work starts.
type Request struct {
	// Reference is an arXiv URL, an arXiv identifier, or a direct PDF URL.
	Reference string
	// TextBackend selects the dialogue generation backend; empty means the
	// configured default.
	TextBackend string
	// AudioBackend selects the synthesis backend; empty means the configured
	// default.
	AudioBackend string
	// GenerateAudio controls whether the pipeline synthesizes speech after
	// writing the transcript.
	GenerateAudio bool
}

// Context carries a job's intermediate artifacts between stages. Each stage
// reads what earlier stages produced and fills in its own outputs. It is
// owned by a single job goroutine and needs no locking.
type Context struct {
	JobID   string
	Request Request
	WorkDir string

	Document   *paper.Document
	Episode    script.Script
	Script     string
	Turns      []postprocess.Turn
	Transcript string
	AudioPath  string
}
