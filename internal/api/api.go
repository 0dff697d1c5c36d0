// Package api defines the wire-level request/result/event shapes for
// the install manager's external surface (spec.md §6). A JSON-RPC
// style host — a desktop shell, a CLI bridge, anything that needs the
// install manager as a subprocess rather than a library — marshals
// these over its transport; internal/manager is driven directly by
// Go callers and never imports this package.
//
// Grounded on buse/types.go's request/result/doc-annotation idiom
// (@name/@category/@caller comments, a Params/Result struct pair per
// operation, json tags throughout): the annotations are preserved here
// as documentation even though this package ships no code generator,
// since they're the convention a reader of this corpus expects for a
// wire API surface.
package api

import (
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/pipeline"
)

//----------------------------------------------------------------------
// Installer
//----------------------------------------------------------------------

// Registers an installer strategy: one that knows how to decide
// whether it supports a given archive's contents, and how to turn
// those contents into instructions.
//
// Installers are consulted in ascending priority order, ties broken by
// registration order (spec.md §4.5 state 10).
//
// @name Installer.Register
// @category Install
// @caller client
type InstallerRegisterParams struct {
	// Lower runs first.
	Priority int `json:"priority"`

	// Opaque handle the host resolves back to its own
	// testSupported/install callback pair.
	HandlerID string `json:"handlerId"`
}

type InstallerRegisterResult struct{}

//----------------------------------------------------------------------
// ModType
//----------------------------------------------------------------------

// Registers a mod-type tester for a single game: one that, given the
// final instruction list, decides whether it recognises the mod's
// layout (spec.md §4.5 state 12). Per-game testers are consulted in
// descending priority order; the first to report a match wins.
//
// @name ModType.Register
// @category Install
// @caller client
type ModTypeRegisterParams struct {
	GameID string `json:"gameId"`
	// Opaque handle the host resolves back to its own test callback.
	HandlerID string `json:"handlerId"`
}

type ModTypeRegisterResult struct{}

//----------------------------------------------------------------------
// Install
//----------------------------------------------------------------------

// Runs one archive through the install pipeline (spec.md §4.5): game
// resolution, hashing, metadata lookup, name/version collision
// handling, extraction, installer selection, instruction processing,
// and persistence. Queued against any in-flight install so interactive
// dialogs from two installs are never interleaved (spec.md §5).
//
// @name Install.Perform
// @category Install
// @caller client
type InstallPerformParams struct {
	// Absolute path to the downloaded archive file.
	ArchivePath string `json:"archivePath"`

	// Identifies the archive in the download manager, if this install
	// was triggered from a managed download rather than a bare file.
	// @optional
	ArchiveID string `json:"archiveId,omitempty"`

	// Candidate games this archive was downloaded for, in preference
	// order. The first entry is used for metadata lookup.
	DownloadGameIDs []string `json:"downloadGameIds"`

	// Overrides game resolution entirely, skipping the resolve-game
	// dialog.
	// @optional
	ForceGameID string `json:"forceGameId,omitempty"`

	// When set, install exactly these files instead of consulting the
	// installer registry (spec.md §4.5 state 10).
	// @optional
	FileList []string `json:"fileList,omitempty"`

	// Installer-specific answers gathered ahead of time, so an
	// unattended install never blocks on a choice dialog.
	// @optional
	Choices map[string]interface{} `json:"choices,omitempty"`

	// Suppresses all interactive dialogs; installers must proceed on
	// defaults or fail.
	// @optional
	Unattended bool `json:"unattended,omitempty"`

	// Carried on the wire only: ToPipelineParams does not forward it,
	// and Install.Perform runs no dependency pass of its own.
	// Dependencies are installed through Install.Dependencies.
	// @optional
	ProcessDependencies bool `json:"processDependencies,omitempty"`

	// Enable the mod for this profile immediately on success.
	// @optional
	Enable bool `json:"enable,omitempty"`

	// Profile the install (and any cascading dependency installs) is
	// performed for.
	Profile string `json:"profile"`
}

type InstallPerformResult struct {
	GameID string        `json:"gameId"`
	ModID  string        `json:"modId"`
	Info   model.ModInfo `json:"info"`
}

// ToPipelineParams translates the wire request into the Go-native
// pipeline.Params the manager actually runs.
func (p InstallPerformParams) ToPipelineParams() pipeline.Params {
	return pipeline.Params{
		Archive: model.Archive{
			Path:      p.ArchivePath,
			ArchiveID: p.ArchiveID,
			GameIDs:   p.DownloadGameIDs,
		},
		ForceGameID: p.ForceGameID,
		FileList:    p.FileList,
		Choices:     p.Choices,
		Unattended:  p.Unattended,
		Profile:     p.Profile,
		Enable:      p.Enable,
	}
}

// FromPipelineResult builds the wire result from a pipeline run.
func FromPipelineResult(res pipeline.Result) InstallPerformResult {
	return InstallPerformResult{GameID: res.GameID, ModID: res.ModID, Info: res.Info}
}

//----------------------------------------------------------------------
// Dependencies
//----------------------------------------------------------------------

// Installs every `requires` rule attached to a mod that isn't already
// satisfied (spec.md §4.8). Errors from individual dependencies are
// swallowed or surfaced depending on their kind; a user cancellation
// aborts the whole batch.
//
// @name Install.Dependencies
// @category Install
// @caller client
type InstallDependenciesParams struct {
	Profile string `json:"profile"`
	GameID  string `json:"gameId"`
	ModID   string `json:"modId"`

	// Skip the "about to install N dependencies" dialog and proceed
	// straight to the execution phase. The dialog is still shown when
	// some dependencies could not be resolved.
	Silent bool `json:"silent,omitempty"`
}

type InstallDependenciesResult struct{}

// Installs every `recommends` rule the user selects from a dialog
// (spec.md §4.8). A nil selection is not an error: it means none were
// picked, and the call completes as a no-op.
//
// @name Install.Recommendations
// @category Install
// @caller client
type InstallRecommendationsParams struct {
	Profile string `json:"profile"`
	GameID  string `json:"gameId"`
	ModID   string `json:"modId"`
}

type InstallRecommendationsResult struct{}

//----------------------------------------------------------------------
// Events
//----------------------------------------------------------------------

// WillInstallModNotification is fired before any filesystem work for a
// mod begins, and must be awaited by the host before the pipeline
// proceeds (spec.md §6).
//
// @name Install.WillInstallMod
// @category Install
// @caller server
type WillInstallModNotification struct {
	GameID    string        `json:"gameId"`
	ArchiveID string        `json:"archiveId"`
	ModID     string        `json:"modId"`
	Info      model.ModInfo `json:"info"`
}

// @name Install.DidInstallMod
// @category Install
// @caller server
type DidInstallModNotification struct {
	GameID    string        `json:"gameId"`
	ArchiveID string        `json:"archiveId"`
	ModID     string        `json:"modId"`
	Info      model.ModInfo `json:"info"`
}

// @name Install.WillInstallDependencies
// @category Install
// @caller server
type WillInstallDependenciesNotification struct {
	ProfileID   string `json:"profileId"`
	ModID       string `json:"modId"`
	Recommended bool   `json:"recommended"`
}

// @name Install.DidInstallDependencies
// @category Install
// @caller server
type DidInstallDependenciesNotification struct {
	ProfileID   string `json:"profileId"`
	ModID       string `json:"modId"`
	Recommended bool   `json:"recommended"`
}

// @name Install.ModsEnabled
// @category Install
// @caller server
type ModsEnabledNotification struct {
	ModIDs  []string `json:"modIds"`
	Enabled bool     `json:"enabled"`
	GameID  string   `json:"gameId"`
}

// Asks the host to remove a mod's installed content; the call is
// awaited, unlike the other notifications in this section, because
// the pipeline needs to know the removal finished before it installs
// the replacement (spec.md §4.7 "Replace").
//
// @name Install.RemoveMod
// @category Install
// @caller server
type RemoveModNotification struct {
	GameID string `json:"gameId"`
	ModID  string `json:"modId"`
}
