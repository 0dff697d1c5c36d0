package main

import (
	"context"
	"fmt"

	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// logEventBus prints every external-bus notification to stdout instead
// of forwarding it to a real host process, the way a standalone CLI
// stands in for butler's buse message bus during local testing.
type logEventBus struct{}

func (logEventBus) WillInstallMod(ctx context.Context, gameID, archiveID, modID string, info model.ModInfo) error {
	fmt.Printf("→ installing %s/%s\n", gameID, modID)
	return nil
}

func (logEventBus) DidInstallMod(gameID, archiveID, modID string, info model.ModInfo) {
	fmt.Printf("✓ installed %s/%s\n", gameID, modID)
}

func (logEventBus) WillInstallDependencies(profileID, modID string, recommended bool) {
	kind := "dependencies"
	if recommended {
		kind = "recommendations"
	}
	fmt.Printf("→ installing %s for %s\n", kind, modID)
}

func (logEventBus) DidInstallDependencies(profileID, modID string, recommended bool) {
	kind := "dependencies"
	if recommended {
		kind = "recommendations"
	}
	fmt.Printf("✓ done installing %s for %s\n", kind, modID)
}

func (logEventBus) ModsEnabled(modIDs []string, enabled bool, gameID string) {
	fmt.Printf("  %s enabled=%v: %v\n", gameID, enabled, modIDs)
}

func (logEventBus) RemoveMod(ctx context.Context, gameID, modID string) error {
	fmt.Printf("  removing previous install %s/%s\n", gameID, modID)
	return nil
}

// noDownloader refuses every managed download: modctl only drives
// already-downloaded archives, so dependencies whose gather results
// need fetching simply come back NotFound rather than reaching out to
// a real download manager (spec.md §1 treats the downloader as an
// out-of-scope collaborator).
type noDownloader struct{}

func (noDownloader) StartDownload(ctx context.Context, urls []string, meta ports.DownloadMeta) (string, error) {
	return "", ierrors.NewNotFound("modctl has no download manager wired")
}

func (noDownloader) StartDownloadUpdate(ctx context.Context, source, domain, modID, fileID, pattern string) ([]string, error) {
	return nil, ierrors.NewNotFound("modctl has no download manager wired")
}

func (noDownloader) ResumeDownload(ctx context.Context, downloadID string) error {
	return ierrors.NewNotFound("modctl has no download manager wired")
}

func (noDownloader) IsPaused(ctx context.Context, downloadID string) (bool, error) {
	return false, nil
}

// noMetadataLookup reports no metadata for any archive: modctl derives
// a mod's name from its file name alone (see deriveName in the
// pipeline) rather than consulting an external metadata service.
type noMetadataLookup struct{}

func (noMetadataLookup) Lookup(ctx context.Context, filePath, md5 string, size int64, gameID string) ([]model.LookupResult, error) {
	return nil, nil
}

// emptyGather reports no dependencies for any rule set: without a
// metadata/source backend, modctl has no catalogue to resolve
// `requires`/`recommends` rules against.
func emptyGather(ctx context.Context, rules []model.ModRule, gameID string, recommended bool) ([]model.Dependency, []model.DependencyError, error) {
	var errs []model.DependencyError
	for _, r := range rules {
		errs = append(errs, model.DependencyError{Reference: r.Reference, Message: "no gather backend wired"})
	}
	return nil, errs, nil
}
