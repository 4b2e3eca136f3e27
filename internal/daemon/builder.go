package daemon

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"papercast/internal/config"
	"papercast/internal/notation"
	"papercast/internal/paper"
	"papercast/internal/pipeline"
	"papercast/internal/postprocess"
	"papercast/internal/script"
	"papercast/internal/services"
	"papercast/internal/services/llm"
	"papercast/internal/synth"
)

// Stage keys in execution order.
const (
	StageParse       = "parse"
	StageNotation    = "notation"
	StageDialogue    = "dialogue"
	StagePostprocess = "postprocess"
	StageSynth       = "synth"
)

// NewBuilder returns the standard pipeline builder. Audio submissions get a
// five-stage pipeline; text-only submissions drop the synthesis stage and
// re-partition the progress weights so the final stage still ends at 1.0.
func NewBuilder(cfg *config.Config, logger *slog.Logger) pipeline.Builder {
	return func(req pipeline.Request) ([]pipeline.Stage, error) {
		backend, err := cfg.ResolveLLMBackend(req.TextBackend)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "daemon", "build", err.Error(), nil)
		}
		if req.AudioBackend != "" && req.AudioBackend != cfg.TTS.Backend {
			return nil, services.Wrap(services.ErrValidation, "daemon", "build", fmt.Sprintf("unknown audio backend %q", req.AudioBackend), nil)
		}

		client := llm.NewClient(llm.Config{
			APIKey:         backend.APIKey,
			BaseURL:        backend.BaseURL,
			Model:          backend.Model,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
		parser := paper.NewParser(paper.Config{
			Metadata:        paper.NewLLMMetadata(client),
			DownloadTimeout: time.Duration(cfg.Workflow.DownloadTimeoutSeconds) * time.Second,
			Logger:          logger,
		})
		generator := script.NewGenerator(client, cfg.LLM.MaxSectionChars, logger)

		if !req.GenerateAudio {
			return []pipeline.Stage{
				{Key: StageParse, Label: "Parsing paper", WeightStart: 0, WeightEnd: 0.15, Runner: parseStage(parser)},
				{Key: StageNotation, Label: "Converting notation", WeightStart: 0.15, WeightEnd: 0.20, Runner: notationStage()},
				{Key: StageDialogue, Label: "Generating dialogue", WeightStart: 0.20, WeightEnd: 0.85, Runner: dialogueStage(generator)},
				{Key: StagePostprocess, Label: "Polishing script", WeightStart: 0.85, WeightEnd: 1.0, Runner: postprocessStage()},
			}, nil
		}

		synthesizer := synth.NewSynthesizer(synth.Config{
			Command:       cfg.TTS.Command,
			HostVoice:     cfg.TTS.HostVoice,
			ExpertVoice:   cfg.TTS.ExpertVoice,
			SilenceMillis: cfg.TTS.SilenceMillis,
			Format:        cfg.TTS.Format,
			Logger:        logger,
		})
		return []pipeline.Stage{
			{Key: StageParse, Label: "Parsing paper", WeightStart: 0, WeightEnd: 0.10, Runner: parseStage(parser)},
			{Key: StageNotation, Label: "Converting notation", WeightStart: 0.10, WeightEnd: 0.15, Runner: notationStage()},
			{Key: StageDialogue, Label: "Generating dialogue", WeightStart: 0.15, WeightEnd: 0.75, Runner: dialogueStage(generator)},
			{Key: StagePostprocess, Label: "Polishing script", WeightStart: 0.75, WeightEnd: 0.82, Runner: postprocessStage()},
			{Key: StageSynth, Label: "Synthesizing speech", WeightStart: 0.82, WeightEnd: 1.0, Runner: synthStage(synthesizer, cfg.Paths.OutputDir)},
		}, nil
	}
}

func parseStage(parser *paper.Parser) pipeline.RunnerFunc {
	return func(ctx context.Context, job *pipeline.Context, report pipeline.Reporter) error {
		doc, err := parser.Parse(ctx, job.Request.Reference, job.WorkDir, paper.Progress(report))
		if err != nil {
			return err
		}
		job.Document = doc
		return nil
	}
}

// notationStage rewrites the LaTeX placeholders embedded during parsing into
// spoken-form text, section by section.
func notationStage() pipeline.RunnerFunc {
	return func(_ context.Context, job *pipeline.Context, report pipeline.Reporter) error {
		doc := job.Document
		if doc == nil {
			return services.Wrap(services.ErrValidation, "daemon", "notation", "no parsed document", nil)
		}

		total := len(doc.Sections) + 1
		doc.Abstract = notation.ReplacePlaceholders(doc.Abstract, doc.Latex)
		report(1/float64(total), "Converted notation in abstract")
		for i := range doc.Sections {
			doc.Sections[i].Text = notation.ReplacePlaceholders(doc.Sections[i].Text, doc.Latex)
			report(float64(i+2)/float64(total), fmt.Sprintf("Converted notation in %s", doc.Sections[i].Key))
		}
		return nil
	}
}

func dialogueStage(generator *script.Generator) pipeline.RunnerFunc {
	return func(ctx context.Context, job *pipeline.Context, report pipeline.Reporter) error {
		episode, err := generator.Generate(ctx, job.Document, script.Progress(report))
		if err != nil {
			return err
		}
		job.Episode = episode
		job.Script = episode.Text()
		return nil
	}
}

func postprocessStage() pipeline.RunnerFunc {
	return func(_ context.Context, job *pipeline.Context, report pipeline.Reporter) error {
		doc := job.Document
		if doc == nil {
			return services.Wrap(services.ErrValidation, "daemon", "postprocess", "no parsed document", nil)
		}

		report(0.2, "Cleaning dialogue")
		processed := postprocess.Process(job.Episode, doc.Title, doc.Authors, jobSeed(job.JobID))
		job.Turns = processed.Turns

		report(0.7, "Rendering transcript")
		job.Transcript = processed.Transcript()
		transcriptPath := filepath.Join(job.WorkDir, "transcript.txt")
		if err := os.WriteFile(transcriptPath, []byte(job.Transcript), 0o644); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		report(1.0, "Script polished")
		return nil
	}
}

// synthStage voices the dialogue and publishes the artifact under the output
// directory keyed by job id.
func synthStage(synthesizer *synth.Synthesizer, outputDir string) pipeline.RunnerFunc {
	return func(ctx context.Context, job *pipeline.Context, report pipeline.Reporter) error {
		audioPath, err := synthesizer.Synthesize(ctx, job.Turns, job.WorkDir, synth.Progress(report))
		if err != nil {
			return err
		}

		finalPath := filepath.Join(outputDir, job.JobID+filepath.Ext(audioPath))
		if err := copyFile(audioPath, finalPath); err != nil {
			return fmt.Errorf("publish audio artifact: %w", err)
		}
		job.AudioPath = finalPath
		return nil
	}
}

// jobSeed makes filler injection deterministic per job while varying across
// jobs.
func jobSeed(jobID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(jobID))
	return int64(h.Sum64())
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
