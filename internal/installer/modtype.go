package installer

import (
	"context"
	"sort"
	"sync"

	"github.com/itchio/modinstall/internal/model"
)

// modTypeEntry mirrors entry but sorts descending by priority, per
// spec.md §4.5 step 12 ("ask each registered mod-type for the game
// (descending priority)").
type modTypeEntry struct {
	index  int
	tester model.ModTypeTester
}

// ModTypeRegistry holds, per game, the mod-type testers consulted by
// the determine-mod-type pipeline step. Kept distinct from Registry
// because mod-type testers are queried highest-priority-first and
// scoped per game, unlike installer strategies.
type ModTypeRegistry struct {
	mu     sync.Mutex
	byGame map[string][]modTypeEntry
	next   int
}

// NewModTypeRegistry returns an empty registry.
func NewModTypeRegistry() *ModTypeRegistry {
	return &ModTypeRegistry{byGame: make(map[string][]modTypeEntry)}
}

// Register adds tester for gameID, keeping the per-game list sorted
// stably descending by tester.Priority().
func (r *ModTypeRegistry) Register(gameID string, tester model.ModTypeTester) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := modTypeEntry{index: r.next, tester: tester}
	r.next++
	r.byGame[gameID] = append(r.byGame[gameID], e)
	entries := r.byGame[gameID]
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := entries[i].tester.Priority(), entries[j].tester.Priority()
		if pi != pj {
			return pi > pj
		}
		return entries[i].index < entries[j].index
	})
}

// Determine returns the TypeID of the first tester (highest priority
// first) whose Test reports true, or "" if none match.
func (r *ModTypeRegistry) Determine(ctx context.Context, instructions []model.Instruction, gameID string) (string, error) {
	r.mu.Lock()
	snapshot := make([]modTypeEntry, len(r.byGame[gameID]))
	copy(snapshot, r.byGame[gameID])
	r.mu.Unlock()

	for _, e := range snapshot {
		ok, err := e.tester.Test(ctx, instructions)
		if err != nil {
			return "", err
		}
		if ok {
			return e.tester.TypeID(), nil
		}
	}
	return "", nil
}
