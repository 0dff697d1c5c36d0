// Package extractor models the opaque archive extractor collaborator
// (spec.md §4.3): a capability that expands an archive into a file
// tree, classifies critical errors, and knows which extensions are
// "really" archives for the not-an-archive fallback gate.
package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// criticalPatterns are substrings whose presence in any extractor error
// message means the archive is unrecoverably broken (spec.md §4.3).
var criticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)unexpected end of archive`),
	regexp.MustCompile(`(?i)data error`),
	regexp.MustCompile(`(?i)cannot open as archive`),
}

// IsCritical reports whether any message in errs matches a known
// critical-failure pattern.
func IsCritical(errs []string) bool {
	for _, msg := range errs {
		for _, pat := range criticalPatterns {
			if pat.MatchString(msg) {
				return true
			}
		}
	}
	return false
}

// Classify turns a raw extract result into an ArchiveBroken error when
// a non-zero result carries a critical message, and returns nil
// otherwise. result.Code == 0 is always success regardless of
// accompanying messages; a nil return with a non-zero Code means the
// caller must ask the user whether to continue.
func Classify(result ports.ExtractResult) error {
	if result.Code == 0 {
		return nil
	}
	if IsCritical(result.Errors) {
		return ierrors.NewArchiveBroken(strings.Join(result.Errors, "; "))
	}
	return nil // non-critical, non-zero: caller must ask the user to continue
}

// knownArchiveExtensions is the set recognised as true archives for the
// "not an archive" fallback gate (spec.md §6).
var knownArchiveExtensions = map[string]bool{
	".zip": true, ".z01": true, ".7z": true, ".rar": true, ".r00": true,
	".001": true, ".bz2": true, ".bzip2": true, ".gz": true, ".gzip": true,
	".xz": true, ".z": true, ".lzh": true,
}

// IsKnownArchiveExtension reports whether path's extension is one of the
// recognised true-archive extensions.
func IsKnownArchiveExtension(path string) bool {
	ext := extOf(path)
	return knownArchiveExtensions[ext]
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx:])
}

// Func adapts a plain function to ports.Extractor, the way a test or a
// thin CLI wiring would supply one without a named type.
type Func func(ctx context.Context, archive model.Archive, destDir string, progress model.ProgressFunc, passwordPrompt ports.PasswordPrompt) (ports.ExtractResult, error)

func (f Func) ExtractFull(ctx context.Context, archive model.Archive, destDir string, progress model.ProgressFunc, passwordPrompt ports.PasswordPrompt) (ports.ExtractResult, error) {
	return f(ctx, archive, destDir, progress, passwordPrompt)
}
