package main

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// zipExtractor is modctl's stand-in for the real archive engine the
// spec treats as an opaque out-of-scope collaborator (§1: "archive
// codec"). It only understands zip, via the standard library's
// archive/zip — the corpus's own archive stack (butler's wharf/savior/
// arkive) is itself excluded from this port for the same reason, so
// there's no pack dependency to reach for here; this is demonstration
// wiring, not a domain component.
type zipExtractor struct{}

func (zipExtractor) ExtractFull(ctx context.Context, archive model.Archive, destDir string, progress model.ProgressFunc, passwordPrompt ports.PasswordPrompt) (ports.ExtractResult, error) {
	r, err := zip.OpenReader(archive.Path)
	if err != nil {
		return ports.ExtractResult{Code: 1, Errors: []string{"cannot open as archive: " + err.Error()}}, nil
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return ports.ExtractResult{}, err
	}

	total := len(r.File)
	for i, f := range r.File {
		select {
		case <-ctx.Done():
			return ports.ExtractResult{}, ctx.Err()
		default:
		}

		target := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return ports.ExtractResult{}, err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return ports.ExtractResult{}, err
		}

		if err := extractOne(f, target); err != nil {
			return ports.ExtractResult{Code: 1, Errors: []string{"unexpected end of archive: " + err.Error()}}, nil
		}

		if progress != nil && total > 0 {
			progress(float64(i+1) / float64(total))
		}
	}

	return ports.ExtractResult{Code: 0}, nil
}

func extractOne(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
