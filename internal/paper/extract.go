package paper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"papercast/internal/services"
)

// DefaultExtractCommand is the external binary used to pull text out of a
// PDF. The -layout flag keeps reading order sane for two-column papers.
const DefaultExtractCommand = "pdftotext"

// extractText converts the PDF at pdfPath to plain text using the
// configured external tool.
func (p *Parser) extractText(ctx context.Context, pdfPath string) (string, error) {
	txtPath := filepath.Join(filepath.Dir(pdfPath), "paper.txt")
	args := []string{"-layout", "-nopgbrk", pdfPath, txtPath}

	if err := p.run(ctx, p.extractCommand, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "paper", "extract", fmt.Sprintf("%s failed", p.extractCommand), err)
	}

	raw, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "", services.Wrap(services.ErrExternalTool, "paper", "extract", "pdf produced no text", nil)
	}
	return text, nil
}

func (p *Parser) run(ctx context.Context, name string, args ...string) error {
	if p.commandRunner != nil {
		return p.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
