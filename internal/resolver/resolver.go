// Package resolver implements the Dependency Resolver (spec.md §4.8):
// repairing stale rule references, gathering candidates through an
// external matcher, running the requires/recommends dialogs, and
// driving bounded-parallel installs of whatever the user approved.
//
// Grounded on the resolved/resolving map idiom in
// frederic-klein/yacm's internal/resolver package and the recursive,
// visited-set dependency walk in DonovanMods/lmm's
// cmd/lmm/install.go resolveDependencies.
package resolver

import (
	"context"
	"regexp"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/itchio/modinstall/internal/consumer"
	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// MaxParallelism bounds concurrent dependency installs (spec.md §5:
// "up to 4 dependencies progress in parallel").
const MaxParallelism = 4

// exactHex matches a reference.versionMatch that names an exact file
// id (hex digest or integer range) rather than a fuzzy version
// pattern; used to decide update-aware vs plain downloads in
// step 1 of the execution phase.
var exactHex = regexp.MustCompile(`^[0-9a-fA-F]+$|^\d+(-\d+)?$`)

// Resolver drives one requires/recommends batch for a single source
// mod.
type Resolver struct {
	Store    ports.Store
	Dialogs  ports.Dialogs
	Gather   ports.GatherFunc
	Download ports.Downloader
	Install  ports.InstallFunc
	Consumer consumer.Consumer

	// Concurrency overrides MaxParallelism when positive, so a host
	// can tune the execution phase's fan-out (SPEC_FULL.md's
	// supplemented "YAML-configurable concurrency limit" feature)
	// without touching the package constant.
	Concurrency int
}

func (r *Resolver) concurrency() int {
	if r.Concurrency > 0 {
		return r.Concurrency
	}
	return MaxParallelism
}

// repairRules rewrites rules whose reference.id points at a
// no-longer-existing mod, provided the reference is otherwise fuzzy
// enough for the gather phase to re-match it (spec.md §4.8
// "Pre-flight repairRules").
func (r *Resolver) repairRules(gameID string, rules []model.ModRule) []model.ModRule {
	out := make([]model.ModRule, len(rules))
	for i, rule := range rules {
		out[i] = rule
		if rule.Reference.ID == "" {
			continue
		}
		exists, err := r.Store.ModExists(gameID, rule.Reference.ID)
		if err != nil || exists {
			continue
		}
		if rule.Reference.IsFuzzy() {
			ref := rule.Reference
			ref.ID = ""
			out[i].Reference = ref
		}
	}
	return out
}

// gathered is the outcome of splitting gather's results, per
// spec.md §4.8 "Split into {success, existing, error}".
type gathered struct {
	success  []model.Dependency
	existing []model.Dependency
	errs     []model.DependencyError
}

func (r *Resolver) gather(ctx context.Context, profile, gameID string, rules []model.ModRule, recommended bool) (gathered, error) {
	deps, errs, err := r.Gather(ctx, rules, gameID, recommended)
	if err != nil {
		return gathered{}, err
	}

	var g gathered
	g.errs = errs
	for _, d := range deps {
		if d.Mod != nil {
			enabled, err := r.Store.IsEnabled(profile, d.Mod.GameID, d.Mod.ModID)
			if err == nil && enabled {
				g.existing = append(g.existing, d)
				continue
			}
		}
		g.success = append(g.success, d)
	}
	return g, nil
}

// InstallDependencies implements installDependencies(profile, modId,
// silent) for a mod's requires rules.
func (r *Resolver) InstallDependencies(ctx context.Context, profile, gameID, modID string, rules []model.ModRule, silent bool) error {
	rules = r.repairRules(gameID, rules)
	g, err := r.gather(ctx, profile, gameID, rules, false)
	if err != nil {
		return err
	}

	if len(g.success) == 0 {
		if len(g.errs) > 0 && !silent {
			r.Dialogs.Notify(ctx, "Some dependencies could not be found",
				dependencyErrorSummary(g.errs), ports.NotifyWarning, false)
		}
		return nil
	}

	if !silent || len(g.errs) > 0 {
		withDownload := countWithDownload(g.success)
		decision, err := r.Dialogs.DependencyPrompt(ctx, modID, withDownload, len(g.success)-withDownload, g.errs)
		if err != nil {
			return err
		}
		if decision == ports.DependencyCancel {
			return ierrors.NewUserCanceled("user declined to install dependencies")
		}
	}

	installed, err := r.execute(ctx, profile, gameID, g.success)
	mergeExisting(installed, g.existing)
	r.updateRules(gameID, modID, rules, installed)
	return err
}

// InstallRecommendations implements installRecommendations(profile,
// modId) for a mod's recommends rules.
func (r *Resolver) InstallRecommendations(ctx context.Context, profile, gameID, modID string, rules []model.ModRule) error {
	rules = r.repairRules(gameID, rules)
	g, err := r.gather(ctx, profile, gameID, rules, true)
	if err != nil {
		return err
	}
	if len(g.success) == 0 {
		return nil
	}

	selection, err := r.Dialogs.RecommendationPrompt(ctx, modID, g.success)
	if err != nil {
		return err
	}
	if !selection.Install {
		return nil
	}

	var chosen []model.Dependency
	for i, dep := range g.success {
		if selection.Selected[i] {
			chosen = append(chosen, dep)
		}
	}
	if len(chosen) == 0 {
		return nil
	}

	installed, err := r.execute(ctx, profile, gameID, chosen)
	mergeExisting(installed, g.existing)
	r.updateRules(gameID, modID, rules, installed)
	return err
}

// mergeExisting folds dependencies that were already installed and
// enabled (spec.md §4.8's gather "existing" split) into the map
// updateRules pins rules against, so a rule resolving to an
// already-installed mod still gets its reference.id rewritten
// (spec.md §8 S6).
func mergeExisting(installed map[string]model.InstalledModRef, existing []model.Dependency) {
	for _, dep := range existing {
		if dep.Mod == nil {
			continue
		}
		installed[dep.Reference.ID] = model.InstalledModRef{GameID: dep.Mod.GameID, ModID: dep.Mod.ModID}
	}
}

// execute is the bounded-parallelism execution phase (spec.md §4.8
// "doInstallDependencies"). A UserCanceled from any dependency aborts
// the whole batch; ProcessCanceled/NotFound are swallowed as
// non-reportable notifications; anything else is surfaced but the
// batch continues.
func (r *Resolver) execute(ctx context.Context, profile, gameID string, deps []model.Dependency) (map[string]model.InstalledModRef, error) {
	installed := make(map[string]model.InstalledModRef)
	var mu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency())

	for i := range deps {
		dep := deps[i]
		group.Go(func() error {
			ref, err := r.installOne(gctx, profile, gameID, dep)
			if err != nil {
				if ierrors.Is(err, ierrors.UserCanceled) {
					return err
				}
				if ierrors.Is(err, ierrors.ProcessCanceled) || ierrors.Is(err, ierrors.NotFound) {
					r.Dialogs.Notify(gctx, "Dependency skipped", err.Error(), ports.NotifyWarning, false)
					return nil
				}
				r.Dialogs.Notify(gctx, "Dependency failed", err.Error(), ports.NotifyError, true)
				return nil
			}
			if ref != nil {
				mu.Lock()
				installed[dep.Reference.ID] = *ref
				mu.Unlock()
			}
			return nil
		})
	}

	err := group.Wait()
	return installed, err
}

// installOne runs the three per-dependency steps of spec.md §4.8's
// execution phase.
func (r *Resolver) installOne(ctx context.Context, profile, gameID string, dep model.Dependency) (*model.InstalledModRef, error) {
	var ref *model.InstalledModRef

	if dep.Mod != nil {
		ref = dep.Mod
	} else {
		downloadID, err := r.acquireDownload(ctx, dep)
		if err != nil {
			return nil, err
		}
		ref, err = r.Install(ctx, dep.Reference, downloadID, dep.InstallerChoices, dep.FileList)
		if err != nil {
			return nil, err
		}
	}

	if ref == nil {
		return nil, ierrors.NewNotFound("dependency did not resolve to an installed mod")
	}

	if err := r.Store.SetEnabled(profile, ref.GameID, ref.ModID, true); err != nil {
		return ref, err
	}
	if dep.Extra.Type != "" {
		if err := r.Store.SetModType(ref.GameID, ref.ModID, dep.Extra.Type); err != nil {
			return ref, err
		}
	}
	if dep.Extra.Name != "" {
		if err := r.Store.SetAttribute(ref.GameID, ref.ModID, "customFileName", dep.Extra.Name); err != nil {
			return ref, err
		}
	}

	return ref, nil
}

// acquireDownload implements spec.md §4.8 execution step 1.
func (r *Resolver) acquireDownload(ctx context.Context, dep model.Dependency) (string, error) {
	if dep.Download != nil {
		paused, err := r.Download.IsPaused(ctx, *dep.Download)
		if err != nil {
			return "", err
		}
		if paused {
			if err := r.Download.ResumeDownload(ctx, *dep.Download); err != nil {
				return "", err
			}
		}
		return *dep.Download, nil
	}

	if isUpdateAware(dep) {
		ids, err := r.Download.StartDownloadUpdate(ctx, dep.LookupResults[0].SourceURI, "", dep.LookupResults[0].ModID, dep.LookupResults[0].FileID, dep.Reference.VersionMatch)
		if err != nil {
			return "", err
		}
		if len(ids) == 0 {
			return "", ierrors.NewNotFound("update-aware download produced no candidates")
		}
		return ids[0], nil
	}

	if len(dep.LookupResults) == 0 {
		return "", ierrors.NewNotFound("no lookup result to download from")
	}
	return r.Download.StartDownload(ctx, []string{dep.LookupResults[0].SourceURI}, ports.DownloadMeta{GameID: "", ModID: dep.Reference.ID})
}

// isUpdateAware reports whether a dependency's versionMatch is fuzzy
// (not an exact hex digest / integer range) and its lookup result
// carries both a modId and fileId, per spec.md §4.8 step 1.
func isUpdateAware(dep model.Dependency) bool {
	if dep.Reference.VersionMatch == "" || exactHex.MatchString(dep.Reference.VersionMatch) {
		return false
	}
	if len(dep.LookupResults) == 0 {
		return false
	}
	lr := dep.LookupResults[0]
	return lr.ModID != "" && lr.FileID != ""
}

// updateRules implements spec.md §4.8's post-batch "updateRules":
// pin reference.id to the installed mod, and strip fileMD5 when a
// fuzzy version match is combined with a logical/expression match.
func (r *Resolver) updateRules(gameID, modID string, rules []model.ModRule, installed map[string]model.InstalledModRef) {
	for _, rule := range rules {
		ref, ok := installed[rule.Reference.ID]
		if !ok {
			continue
		}
		newRef := rule.Reference
		newRef.ID = ref.ModID
		if newRef.VersionMatch != "" && !exactHex.MatchString(newRef.VersionMatch) &&
			(newRef.LogicalFileName != "" || newRef.FileExpression != "") {
			newRef.FileMD5 = ""
		}
		updated := rule
		updated.Reference = newRef
		if err := r.Store.AddRule(gameID, modID, updated); err != nil {
			r.Consumer.Warnf("failed to persist updated rule for %s: %s", ref.ModID, err)
		}
	}
}

func countWithDownload(deps []model.Dependency) int {
	n := 0
	for _, d := range deps {
		if d.Download != nil {
			n++
		}
	}
	return n
}

func dependencyErrorSummary(errs []model.DependencyError) string {
	if len(errs) == 0 {
		return ""
	}
	msg := errs[0].Message
	for _, e := range errs[1:] {
		msg += "; " + e.Message
	}
	return msg
}
