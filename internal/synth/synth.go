// Package synth turns a processed dialogue into a single audio file. Each
// turn is voiced individually by an external TTS tool, then the clips are
// joined with silence gaps by ffmpeg.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"papercast/internal/logging"
	"papercast/internal/postprocess"
	"papercast/internal/services"
)

const (
	// DefaultCommand is the per-turn synthesis binary.
	DefaultCommand = "edge-tts"
	// DefaultConcatCommand joins the per-turn clips.
	DefaultConcatCommand = "ffmpeg"

	defaultHostVoice     = "en-US-JennyNeural"
	defaultExpertVoice   = "en-US-GuyNeural"
	defaultSilenceMillis = 600
	defaultFormat        = "wav"
)

// Progress receives synthesis progress as a fraction in [0,1].
type Progress func(fraction float64, message string)

// Config wires the synthesizer's external tools and voices.
type Config struct {
	Command       string
	ConcatCommand string
	HostVoice     string
	ExpertVoice   string
	SilenceMillis int
	Format        string
	Logger        *slog.Logger
}

// Synthesizer produces podcast audio from dialogue turns.
type Synthesizer struct {
	command       string
	concatCommand string
	hostVoice     string
	expertVoice   string
	silenceMillis int
	format        string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewSynthesizer constructs a synthesizer from the supplied configuration.
func NewSynthesizer(cfg Config) *Synthesizer {
	s := &Synthesizer{
		command:       strings.TrimSpace(cfg.Command),
		concatCommand: strings.TrimSpace(cfg.ConcatCommand),
		hostVoice:     strings.TrimSpace(cfg.HostVoice),
		expertVoice:   strings.TrimSpace(cfg.ExpertVoice),
		silenceMillis: cfg.SilenceMillis,
		format:        strings.TrimSpace(cfg.Format),
		logger:        cfg.Logger,
	}
	if s.command == "" {
		s.command = DefaultCommand
	}
	if s.concatCommand == "" {
		s.concatCommand = DefaultConcatCommand
	}
	if s.hostVoice == "" {
		s.hostVoice = defaultHostVoice
	}
	if s.expertVoice == "" {
		s.expertVoice = defaultExpertVoice
	}
	if s.silenceMillis < 0 {
		s.silenceMillis = defaultSilenceMillis
	}
	if s.format == "" {
		s.format = defaultFormat
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Synthesizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Synthesize voices every turn, joins the clips with silence gaps, and
// returns the path of the final audio file inside workDir.
func (s *Synthesizer) Synthesize(ctx context.Context, turns []postprocess.Turn, workDir string, report Progress) (string, error) {
	if report == nil {
		report = func(float64, string) {}
	}
	if len(turns) == 0 {
		return "", services.Wrap(services.ErrValidation, "synth", "speak", "no dialogue turns to voice", nil)
	}

	clipDir := filepath.Join(workDir, "clips")
	if err := os.MkdirAll(clipDir, 0o755); err != nil {
		return "", fmt.Errorf("create clip directory: %w", err)
	}

	clips := make([]string, 0, len(turns))
	total := len(turns)
	for idx, turn := range turns {
		report(0.9*float64(idx)/float64(total), fmt.Sprintf("Voicing turn %d/%d", idx+1, total))
		clipPath := filepath.Join(clipDir, fmt.Sprintf("turn_%04d.mp3", idx))
		args := []string{
			"--voice", s.voiceFor(turn.Speaker),
			"--text", turn.Text,
			"--write-media", clipPath,
		}
		if err := s.run(ctx, s.command, args...); err != nil {
			return "", services.Wrap(services.ErrExternalTool, "synth", "speak", fmt.Sprintf("%s failed on turn %d", s.command, idx+1), err)
		}
		clips = append(clips, clipPath)
	}

	if s.silenceMillis > 0 && len(clips) > 1 {
		report(0.9, "Generating silence gap")
		silencePath := filepath.Join(clipDir, "silence.mp3")
		if err := s.generateSilence(ctx, silencePath); err != nil {
			return "", err
		}
		clips = interleave(clips, silencePath)
	}

	report(0.95, "Joining clips")
	outputPath := filepath.Join(workDir, "podcast."+s.format)
	if err := s.concatenate(ctx, clips, clipDir, outputPath); err != nil {
		return "", err
	}

	report(1.0, "Audio ready")
	s.logger.Info(
		"audio synthesized",
		logging.Int("turns", total),
		logging.String("output", outputPath),
	)
	return outputPath, nil
}

func (s *Synthesizer) voiceFor(speaker string) string {
	if speaker == postprocess.SpeakerHost {
		return s.hostVoice
	}
	return s.expertVoice
}

// generateSilence renders a single gap clip that gets reused between turns.
func (s *Synthesizer) generateSilence(ctx context.Context, path string) error {
	duration := fmt.Sprintf("%.3f", float64(s.silenceMillis)/1000)
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=24000:cl=mono",
		"-t", duration,
		path,
	}
	if err := s.run(ctx, s.concatCommand, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "synth", "silence", fmt.Sprintf("%s failed to render silence", s.concatCommand), err)
	}
	return nil
}

// concatenate joins the clips through ffmpeg's concat demuxer, re-encoding
// into the configured output format.
func (s *Synthesizer) concatenate(ctx context.Context, clips []string, clipDir, outputPath string) error {
	listPath := filepath.Join(clipDir, "concat.txt")
	var list strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&list, "file '%s'\n", clip)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		outputPath,
	}
	if err := s.run(ctx, s.concatCommand, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "synth", "concat", fmt.Sprintf("%s failed to join clips", s.concatCommand), err)
	}
	return nil
}

func interleave(clips []string, silencePath string) []string {
	out := make([]string, 0, 2*len(clips)-1)
	for i, clip := range clips {
		if i > 0 {
			out = append(out, silencePath)
		}
		out = append(out, clip)
	}
	return out
}

func (s *Synthesizer) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
