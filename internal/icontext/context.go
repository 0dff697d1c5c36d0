// Package icontext implements the per-pipeline Install Context
// (spec.md §4.4): progress/indicator/error reporting bound to one game
// and mod id, grounded on butler's OperationContext/consumer pairing in
// cmd/operate/install_perform.go (oc.rc.Consumer, oc.rc.StartProgress(),
// oc.Consumer().Infof(...)).
package icontext

import (
	"sync"

	"github.com/google/uuid"

	"github.com/itchio/modinstall/internal/consumer"
	"github.com/itchio/modinstall/internal/model"
)

// InstallContext is created on pipeline start and closed (via
// FinishInstall) on every exit path: success, cancel, or error.
type InstallContext struct {
	ID        uuid.UUID
	GameID    string
	ModID     string
	ArchiveID string

	mu       sync.Mutex
	progress float64
	status   model.ContextStatus
	finished bool

	consumer consumer.Consumer
}

// New creates a context bound to a fresh indicator. The caller still
// must call StartInstall once the mod id/game id are known.
func New(c consumer.Consumer) *InstallContext {
	return &InstallContext{
		ID:       uuid.New(),
		status:   model.StatusStarted,
		consumer: c,
	}
}

// StartIndicator begins a named progress indicator, e.g. "extracting".
func (ic *InstallContext) StartIndicator(name string) {
	ic.consumer.Infof("→ %s", name)
}

// StartInstall binds the context to a specific (gameId, modId,
// archiveId) triple.
func (ic *InstallContext) StartInstall(modID, gameID, archiveID string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.ModID = modID
	ic.GameID = gameID
	ic.ArchiveID = archiveID
	ic.consumer.Infof("Starting install of %s for %s", modID, gameID)
}

// SetInstallPath records where the mod is being staged to, for logging.
func (ic *InstallContext) SetInstallPath(modID, dest string) {
	ic.consumer.Infof("  (%s) is our destination", dest)
}

// SetProgress updates overall completion. A nil percent just re-emits
// the last known value (used after a sub-operation that reset the
// consumer's own progress bar).
func (ic *InstallContext) SetProgress(percent *float64) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if percent != nil {
		ic.progress = *percent
	}
	ic.consumer.Progress(ic.progress / 100)
}

// SetModType persists (via logging here; the store write happens in the
// pipeline) the mod-type classification.
func (ic *InstallContext) SetModType(modID, modType string) {
	ic.consumer.Infof("Mod type for %s: %s", modID, modType)
}

// ReportError surfaces an error to the user. allowReport controls
// whether a "report this" action accompanies it.
func (ic *InstallContext) ReportError(title, body string, allowReport bool, replacements map[string]string) {
	ic.consumer.Errorf("%s: %s", title, body)
}

// FinishInstall is the single terminal transition for this context. It
// is idempotent: a second call is logged and ignored rather than
// panicking, since a defer-based cleanup path and an explicit success
// path can both reach it under programmer error.
func (ic *InstallContext) FinishInstall(status model.ContextStatus, info model.ModInfo) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.finished {
		ic.consumer.Warnf("FinishInstall called twice for %s", ic.ModID)
		return
	}
	ic.finished = true
	ic.status = status
	ic.consumer.Infof("Install %s: %s", ic.ModID, status)
}

// StopIndicator tears down the progress indicator. mod is nil unless
// the indicator is mod-specific.
func (ic *InstallContext) StopIndicator(mod *string) {
	ic.consumer.Progress(0)
}

// Status returns the context's current terminal/in-flight status.
func (ic *InstallContext) Status() model.ContextStatus {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.status
}

// Finished reports whether FinishInstall has already run.
func (ic *InstallContext) Finished() bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.finished
}
