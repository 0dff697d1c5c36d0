// Package installer implements the Installer Registry (spec.md §4.2): a
// priority-ordered list of installer strategies, the generalised form of
// butler's installer.GetManager/RegisterManager lookup in
// cmd/operate/install_perform.go ("manager := installer.GetManager(string(installerInfo.Type))").
package installer

import (
	"context"
	"sort"
	"sync"

	"github.com/itchio/modinstall/internal/model"
)

// entry pairs a registered installer with its priority and the order it
// was registered in, so ties resolve deterministically (spec.md §3:
// "Installer order is total: ties in priority resolve by registration
// order").
type entry struct {
	priority int
	index    int
	inst     model.Installer
}

// Registry holds installer entries, read-only once installs are
// underway (spec.md §3 ownership note).
type Registry struct {
	mu      sync.Mutex
	entries []entry
	next    int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register inserts inst at the given priority (lower runs first),
// keeping the list sorted stably ascending by priority.
func (r *Registry) Register(priority int, inst model.Installer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := entry{priority: priority, index: r.next, inst: inst}
	r.next++
	r.entries = append(r.entries, e)
	sort.SliceStable(r.entries, func(i, j int) bool {
		if r.entries[i].priority != r.entries[j].priority {
			return r.entries[i].priority < r.entries[j].priority
		}
		return r.entries[i].index < r.entries[j].index
	})
}

// Find scans installers in priority order and returns the first whose
// TestSupported reports supported=true.
func (r *Registry) Find(ctx context.Context, files []string, gameID string) (model.Installer, bool, error) {
	r.mu.Lock()
	snapshot := make([]entry, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	for _, e := range snapshot {
		res, err := e.inst.TestSupported(ctx, files, gameID)
		if err != nil {
			return nil, false, err
		}
		if res.Supported {
			return e.inst, true, nil
		}
	}
	return nil, false, nil
}

// Len reports how many installers are registered, mostly for tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ListInstaller synthesises a single-installer strategy over an
// explicit file list, used when InstallPerform is called with a
// caller-supplied fileList instead of consulting the registry
// (spec.md §4.5 step 10).
type ListInstaller struct {
	Instructions []model.Instruction
}

func (l *ListInstaller) TestSupported(ctx context.Context, files []string, gameID string) (model.TestSupportedResult, error) {
	return model.TestSupportedResult{Supported: true}, nil
}

func (l *ListInstaller) Install(ctx context.Context, files []string, tempDir string, gameID string, progress model.ProgressFunc, choices map[string]interface{}, unattended bool) ([]model.Instruction, error) {
	return l.Instructions, nil
}
