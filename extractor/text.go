package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextExtractor handles plain text (.txt) transcripts.
type TextExtractor struct{}

func (t *TextExtractor) SupportedFormats() []string { return []string{"txt"} }

func (t *TextExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", fmt.Errorf("empty text file: %s", path)
	}
	return content, nil
}
