// Package ports declares the narrow interfaces the install manager uses
// to reach every out-of-scope collaborator named in spec.md §1/§6: the
// persistent store, the archive extractor, the download manager,
// metadata lookup, and the dialog/notification subsystem.
//
// The manager never holds a concrete database handle, HTTP client, or
// archive codec; it only ever depends on these interfaces, the way
// butler's cmd/operate only ever touches rc.DB()/the buse message bus
// rather than opening sqlite or itch.io API connections itself.
package ports

import (
	"context"

	"github.com/itchio/modinstall/internal/model"
)

// ModSummary is the minimal view of an already-catalogued mod the
// install manager needs to make replace/version decisions, without
// owning the store's schema.
type ModSummary struct {
	GameID        string
	ModID         string
	Attributes    model.ModInfo
	Rules         []model.ModRule
	FileOverrides []FileOverride
	NewestFileID  string
	FileID        string
	Enabled       bool
}

// FileOverride is an opaque per-file deployment override inherited
// across a version replace; the install manager only ever copies these
// verbatim, it never interprets them (deployment is out of scope).
type FileOverride struct {
	RelPath string
	Payload map[string]interface{}
}

// Store is the persistent catalogue of mods and profiles: queried and
// mutated only via this narrow command/event surface (spec.md §1).
type Store interface {
	// ModExists reports whether gameID/modID is already catalogued.
	ModExists(gameID, modID string) (bool, error)

	// GetMod returns the existing catalogue entry, or ok=false if none.
	GetMod(gameID, modID string) (ModSummary, bool, error)

	// SaveMod upserts a mod's attributes/rules/type after a successful
	// install.
	SaveMod(gameID string, summary ModSummary) error

	// RemoveMod deletes a catalogued mod (used by Replace decisions and
	// the event bus's remove-mod command).
	RemoveMod(gameID, modID string) error

	// SetModType persists the mod-type classification.
	SetModType(gameID, modID, modType string) error

	// SetEnabled flips a mod's enabled state in the given profile.
	SetEnabled(profile, gameID, modID string, enabled bool) error

	// IsEnabled reports a mod's enabled state in the given profile.
	IsEnabled(profile, gameID, modID string) (bool, error)

	// SetAttribute persists a single mod attribute (instruction type
	// "attribute", spec.md §4.6 step 10).
	SetAttribute(gameID, modID, key string, value interface{}) error

	// AddRule persists a mod rule (instruction type "rule", spec.md
	// §4.6 step 12).
	AddRule(gameID, modID string, rule model.ModRule) error
}

// Extractor is the opaque archive codec collaborator (spec.md §4.3).
type Extractor interface {
	ExtractFull(ctx context.Context, archive model.Archive, destDir string, progress model.ProgressFunc, passwordPrompt PasswordPrompt) (ExtractResult, error)
}

// PasswordPrompt asks the user for an archive password; returning
// ierrors.UserCanceled aborts extraction.
type PasswordPrompt func(ctx context.Context) (string, error)

// ExtractResult is what the extractor reports back.
type ExtractResult struct {
	Code   int
	Errors []string
}

// DownloadMeta is passed through to the download manager unexamined.
type DownloadMeta struct {
	GameID string
	ModID  string
	Extra  map[string]interface{}
}

// Downloader is the out-of-scope download manager collaborator
// (spec.md §1/§6).
type Downloader interface {
	// StartDownload begins a fresh download and returns its id.
	StartDownload(ctx context.Context, urls []string, meta DownloadMeta) (string, error)

	// StartDownloadUpdate starts one or more update-aware downloads for
	// a specific file id and returns their ids.
	StartDownloadUpdate(ctx context.Context, source, domain, modID, fileID, pattern string) ([]string, error)

	// ResumeDownload resumes a paused download by id.
	ResumeDownload(ctx context.Context, downloadID string) error

	// IsPaused reports whether a download is currently paused.
	IsPaused(ctx context.Context, downloadID string) (bool, error)
}

// MetadataLookup is the out-of-scope metadata service (spec.md §1).
type MetadataLookup interface {
	Lookup(ctx context.Context, filePath, md5 string, size int64, gameID string) ([]model.LookupResult, error)
}

// NameCollisionDecision is the user's answer to the name-collision
// dialog (spec.md §4.7).
type NameCollisionDecision int

const (
	NameCollisionCancel NameCollisionDecision = iota
	NameCollisionAddVariant
	NameCollisionReplace
)

// VersionChoiceDecision is the user's answer to the version-choice
// dialog (spec.md §4.7).
type VersionChoiceDecision int

const (
	VersionChoiceCancel VersionChoiceDecision = iota
	VersionChoiceReplace
	VersionChoiceInstall
)

// DependencyDecision is the user's answer to the dependency-install
// dialog (spec.md §4.8).
type DependencyDecision int

const (
	DependencyCancel DependencyDecision = iota
	DependencyEnable
)

// RecommendationSelection is which recommended dependencies the user
// checked off in the recommendations dialog.
type RecommendationSelection struct {
	Selected map[int]bool // index into the gathered success list
	Install  bool         // false means "Don't install"/"Close"
}

// Dialogs is the request/reply capability covering every user-mediated
// decision point named in spec.md (§4.3, §4.5, §4.7, §4.8).
type Dialogs interface {
	// ResolveGame asks which of the candidate games to install for.
	// Returns "" and ierrors.UserCanceled if the user backs out.
	ResolveGame(ctx context.Context, candidates []string) (string, error)

	// NameCollision is shown when the derived modId already exists.
	NameCollision(ctx context.Context, existing ModSummary) (NameCollisionDecision, error)

	// VersionChoice is shown when a prior mod with the same fileId is
	// already installed.
	VersionChoice(ctx context.Context, prior ModSummary) (VersionChoiceDecision, error)

	// ContinueOnExtractionErrors is shown when the extractor returns a
	// non-zero, non-critical code. allowContinue is false when a
	// terminal error accompanied the non-zero code.
	ContinueOnExtractionErrors(ctx context.Context, messages []string, allowContinue bool) (bool, error)

	// NotAnArchive offers to treat an unrecognised, non-archive file as
	// a single-file mod.
	NotAnArchive(ctx context.Context, path string) (bool, error)

	// PasswordPrompt asks for an archive password.
	PasswordPrompt(ctx context.Context) (string, error)

	// Notify surfaces a fire-and-forget message to the user. kind
	// distinguishes info/warning/error styling; reportable controls
	// whether a "report this" action is offered.
	Notify(ctx context.Context, title, body string, kind NotifyKind, reportable bool)

	// DependencyPrompt shows the requires-dependency dialog.
	DependencyPrompt(ctx context.Context, modName string, instCount, dlCount int, errs []model.DependencyError) (DependencyDecision, error)

	// RecommendationPrompt shows the recommends-dependency dialog.
	RecommendationPrompt(ctx context.Context, modName string, candidates []model.Dependency) (RecommendationSelection, error)
}

// NotifyKind distinguishes notification styling.
type NotifyKind int

const (
	NotifyInfo NotifyKind = iota
	NotifyWarning
	NotifyError
)

// EventBus is the fire-and-forget (mostly) external bus named in
// spec.md §6.
type EventBus interface {
	WillInstallMod(ctx context.Context, gameID, archiveID, modID string, info model.ModInfo) error
	DidInstallMod(gameID, archiveID, modID string, info model.ModInfo)
	WillInstallDependencies(profileID, modID string, recommended bool)
	DidInstallDependencies(profileID, modID string, recommended bool)
	ModsEnabled(modIDs []string, enabled bool, gameID string)
	RemoveMod(ctx context.Context, gameID, modID string) error
}

// GatherFunc resolves a set of rules into dependencies, delegating to
// whatever source-specific matching logic the host application uses
// (spec.md §4.8 "Gather phase delegates to an external gather(...)").
type GatherFunc func(ctx context.Context, rules []model.ModRule, gameID string, recommended bool) ([]model.Dependency, []model.DependencyError, error)

// InstallFunc is how the resolver re-enters the install pipeline for a
// dependency (spec.md §4.8 step 2, "installModAsync").
type InstallFunc func(ctx context.Context, ref model.Reference, downloadID string, choices map[string]interface{}, fileList []string) (*model.InstalledModRef, error)
