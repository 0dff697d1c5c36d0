package main

import (
	"context"

	"github.com/itchio/modinstall/internal/model"
)

// genericCopyInstaller is modctl's fallback installer strategy: it
// claims support for anything and copies every enumerated file to the
// same relative path in the destination, the way a "just drop the
// files in" mod works when no game-specific installer logic is wired.
// Real installer strategies (FOMOD-style, game-specific layouts) are
// registered ahead of it with a lower priority number so they're tried
// first (spec.md §4.5 state 10).
type genericCopyInstaller struct{}

func (genericCopyInstaller) TestSupported(ctx context.Context, files []string, gameID string) (model.TestSupportedResult, error) {
	return model.TestSupportedResult{Supported: true}, nil
}

func (genericCopyInstaller) Install(ctx context.Context, files []string, tempDir string, gameID string, progress model.ProgressFunc, choices map[string]interface{}, unattended bool) ([]model.Instruction, error) {
	var out []model.Instruction
	total := len(files)
	for i, f := range files {
		if f == "" || f[len(f)-1] == '/' {
			continue
		}
		out = append(out, model.Instruction{Type: model.InstructionCopy, Source: f, Destination: f})
		if progress != nil && total > 0 {
			progress(float64(i+1) / float64(total))
		}
	}
	return out, nil
}
