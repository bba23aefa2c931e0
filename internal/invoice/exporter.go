package invoice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileHandle identifies an exported document.
type FileHandle struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Exporter turns a rendered document into a file.
type Exporter interface {
	Export(ctx context.Context, doc Document) (FileHandle, error)
}

// DirExporter writes documents into Dir using their FileName.
type DirExporter struct {
	Dir string
}

// Export writes doc atomically: a temp file in Dir is renamed over the target.
func (e DirExporter) Export(ctx context.Context, doc Document) (FileHandle, error) {
	if err := ctx.Err(); err != nil {
		return FileHandle{}, err
	}
	name := filepath.Base(doc.FileName)
	if name == "." || name == string(filepath.Separator) || strings.TrimSpace(name) == "" {
		return FileHandle{}, errors.New("invoice: document has no file name")
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return FileHandle{}, fmt.Errorf("invoice: create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(e.Dir, ".invoice-*")
	if err != nil {
		return FileHandle{}, fmt.Errorf("invoice: create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := tmp.Write(doc.HTML)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return FileHandle{}, fmt.Errorf("invoice: write file: %w", err)
	}
	target := filepath.Join(e.Dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return FileHandle{}, fmt.Errorf("invoice: move file: %w", err)
	}
	return FileHandle{Path: target, Size: int64(n)}, nil
}
