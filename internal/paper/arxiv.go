package paper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"papercast/internal/services"
)

var (
	modernIDPattern = regexp.MustCompile(`(\d{4}\.\d{4,5})(v\d+)?`)
	legacyIDPattern = regexp.MustCompile(`([a-z\-]+/\d{7})`)
)

// NormalizePDFURL turns an arXiv URL, a bare identifier, or a direct PDF
// link into a downloadable PDF URL.
func NormalizePDFURL(reference string) (string, error) {
	reference = strings.TrimRight(strings.TrimSpace(reference), "/")
	if reference == "" {
		return "", services.Wrap(services.ErrValidation, "paper", "normalize", "empty reference", nil)
	}
	if strings.HasSuffix(reference, ".pdf") {
		return reference, nil
	}
	if match := modernIDPattern.FindString(reference); match != "" {
		return fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", match), nil
	}
	if match := legacyIDPattern.FindString(reference); match != "" {
		return fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", match), nil
	}
	return "", services.Wrap(services.ErrValidation, "paper", "normalize", fmt.Sprintf("cannot parse arXiv identifier from %q", reference), nil)
}

// downloadPDF fetches the referenced PDF into destDir and returns the local
// path.
func downloadPDF(ctx context.Context, client *http.Client, reference, destDir string, timeout time.Duration) (string, error) {
	pdfURL, err := NormalizePDFURL(reference)
	if err != nil {
		return "", err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "paper", "download", fmt.Sprintf("fetch %s", pdfURL), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "paper", "download", fmt.Sprintf("fetch %s: http %d", pdfURL, resp.StatusCode), nil)
	}

	dest := filepath.Join(destDir, "paper.pdf")
	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create pdf file: %w", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", fmt.Errorf("write pdf file: %w", err)
	}
	return dest, nil
}
