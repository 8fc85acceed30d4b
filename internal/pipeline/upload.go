package pipeline

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// UploadFromFile reads a local image as if it had been uploaded. The content
// type comes from the extension, or from sniffing the bytes when the
// extension is unknown.
func UploadFromFile(path, focus string) (Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, fmt.Errorf("read image: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
		Focus:       focus,
	}, nil
}

// WithScoreThreshold returns a copy of p that keeps lines scoring at least t.
func (p *Processor) WithScoreThreshold(t float64) *Processor {
	cp := *p
	cp.opts.ScoreThreshold = t
	return &cp
}
