package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchio/modinstall/internal/consumer"
	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

type fakeStore struct {
	existing map[string]bool
	enabled  map[string]bool
	modTypes map[string]string
	attrs    map[string]interface{}
	rules    []model.ModRule
	ruleGame []string
	ruleMod  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		existing: map[string]bool{},
		enabled:  map[string]bool{},
		modTypes: map[string]string{},
		attrs:    map[string]interface{}{},
	}
}

func (s *fakeStore) ModExists(gameID, modID string) (bool, error) { return s.existing[modID], nil }
func (s *fakeStore) GetMod(gameID, modID string) (ports.ModSummary, bool, error) {
	return ports.ModSummary{}, false, nil
}
func (s *fakeStore) SaveMod(gameID string, summary ports.ModSummary) error { return nil }
func (s *fakeStore) RemoveMod(gameID, modID string) error                 { return nil }
func (s *fakeStore) SetModType(gameID, modID, modType string) error {
	s.modTypes[modID] = modType
	return nil
}
func (s *fakeStore) SetEnabled(profile, gameID, modID string, enabled bool) error {
	s.enabled[modID] = enabled
	return nil
}
func (s *fakeStore) IsEnabled(profile, gameID, modID string) (bool, error) {
	return s.enabled[modID], nil
}
func (s *fakeStore) SetAttribute(gameID, modID, key string, value interface{}) error {
	s.attrs[key] = value
	return nil
}
func (s *fakeStore) AddRule(gameID, modID string, rule model.ModRule) error {
	s.rules = append(s.rules, rule)
	s.ruleGame = append(s.ruleGame, gameID)
	s.ruleMod = append(s.ruleMod, modID)
	return nil
}

type fakeDialogs struct {
	ports.Dialogs
	dependencyDecision ports.DependencyDecision
	selection          ports.RecommendationSelection
	notifications      []string
}

func (d *fakeDialogs) DependencyPrompt(ctx context.Context, modName string, instCount, dlCount int, errs []model.DependencyError) (ports.DependencyDecision, error) {
	return d.dependencyDecision, nil
}
func (d *fakeDialogs) RecommendationPrompt(ctx context.Context, modName string, candidates []model.Dependency) (ports.RecommendationSelection, error) {
	return d.selection, nil
}
func (d *fakeDialogs) Notify(ctx context.Context, title, body string, kind ports.NotifyKind, reportable bool) {
	d.notifications = append(d.notifications, title)
}

type fakeDownloader struct{}

func (fakeDownloader) StartDownload(ctx context.Context, urls []string, meta ports.DownloadMeta) (string, error) {
	return "dl-1", nil
}
func (fakeDownloader) StartDownloadUpdate(ctx context.Context, source, domain, modID, fileID, pattern string) ([]string, error) {
	return []string{"dl-1"}, nil
}
func (fakeDownloader) ResumeDownload(ctx context.Context, downloadID string) error { return nil }
func (fakeDownloader) IsPaused(ctx context.Context, downloadID string) (bool, error) {
	return false, nil
}

func TestInstallDependencies_NoneFound(t *testing.T) {
	r := &Resolver{
		Store:   newFakeStore(),
		Dialogs: &fakeDialogs{},
		Gather: func(ctx context.Context, rules []model.ModRule, gameID string, recommended bool) ([]model.Dependency, []model.DependencyError, error) {
			return nil, nil, nil
		},
		Consumer: consumer.Noop(),
	}
	err := r.InstallDependencies(context.Background(), "default", "skyrim", "my-mod", nil, true)
	require.NoError(t, err)
}

func TestInstallDependencies_CancelAbortsBatch(t *testing.T) {
	r := &Resolver{
		Store:   newFakeStore(),
		Dialogs: &fakeDialogs{dependencyDecision: ports.DependencyCancel},
		Gather: func(ctx context.Context, rules []model.ModRule, gameID string, recommended bool) ([]model.Dependency, []model.DependencyError, error) {
			return []model.Dependency{{Reference: model.Reference{ID: "other-mod"}}}, nil, nil
		},
		Consumer: consumer.Noop(),
	}
	err := r.InstallDependencies(context.Background(), "default", "skyrim", "my-mod", nil, false)
	require.Error(t, err)
	assert.True(t, ierrors.Is(err, ierrors.UserCanceled))
}

func TestInstallDependencies_InstallsAndEnables(t *testing.T) {
	store := newFakeStore()
	installCalls := 0
	r := &Resolver{
		Store:   store,
		Dialogs: &fakeDialogs{dependencyDecision: ports.DependencyEnable},
		Gather: func(ctx context.Context, rules []model.ModRule, gameID string, recommended bool) ([]model.Dependency, []model.DependencyError, error) {
			return []model.Dependency{
				{
					Reference:     model.Reference{ID: "other-mod"},
					LookupResults: []model.LookupResult{{SourceURI: "https://example.test/file"}},
					Extra:         model.DependencyExtra{Type: "simple", Name: "Other Mod"},
				},
			}, nil, nil
		},
		Download: fakeDownloader{},
		Install: func(ctx context.Context, ref model.Reference, downloadID string, choices map[string]interface{}, fileList []string) (*model.InstalledModRef, error) {
			installCalls++
			return &model.InstalledModRef{GameID: "skyrim", ModID: "other-mod-installed"}, nil
		},
		Consumer: consumer.Noop(),
	}

	rules := []model.ModRule{{Type: model.RuleRequires, Reference: model.Reference{ID: "other-mod"}}}
	err := r.InstallDependencies(context.Background(), "default", "skyrim", "my-mod", rules, false)
	require.NoError(t, err)
	assert.Equal(t, 1, installCalls)
	assert.True(t, store.enabled["other-mod-installed"])
	assert.Equal(t, "simple", store.modTypes["other-mod-installed"])

	require.Len(t, store.rules, 1)
	assert.Equal(t, "other-mod-installed", store.rules[0].Reference.ID)
	assert.Equal(t, "skyrim", store.ruleGame[0])
	assert.Equal(t, "my-mod", store.ruleMod[0])
}

// TestInstallDependencies_ExistingDependencyRulePinned follows spec.md
// §8's S6 seed scenario: of a two-dependency batch, the one that was
// already installed-and-enabled contributes nothing to execute's
// install set, but its rule must still be pinned to the installed mod
// id, same as the freshly-executed one.
func TestInstallDependencies_ExistingDependencyRulePinned(t *testing.T) {
	store := newFakeStore()
	store.enabled["already-installed"] = true
	installCalls := 0
	r := &Resolver{
		Store:   store,
		Dialogs: &fakeDialogs{dependencyDecision: ports.DependencyEnable},
		Gather: func(ctx context.Context, rules []model.ModRule, gameID string, recommended bool) ([]model.Dependency, []model.DependencyError, error) {
			return []model.Dependency{
				{
					Reference: model.Reference{ID: "existing-mod"},
					Mod:       &model.InstalledModRef{GameID: "skyrim", ModID: "already-installed"},
				},
				{
					Reference:     model.Reference{ID: "fresh-mod"},
					LookupResults: []model.LookupResult{{SourceURI: "https://example.test/file"}},
				},
			}, nil, nil
		},
		Download: fakeDownloader{},
		Install: func(ctx context.Context, ref model.Reference, downloadID string, choices map[string]interface{}, fileList []string) (*model.InstalledModRef, error) {
			installCalls++
			return &model.InstalledModRef{GameID: "skyrim", ModID: "fresh-mod-installed"}, nil
		},
		Consumer: consumer.Noop(),
	}

	rules := []model.ModRule{
		{Type: model.RuleRequires, Reference: model.Reference{ID: "existing-mod"}},
		{Type: model.RuleRequires, Reference: model.Reference{ID: "fresh-mod"}},
	}
	err := r.InstallDependencies(context.Background(), "default", "skyrim", "my-mod", rules, true)
	require.NoError(t, err)
	assert.Equal(t, 1, installCalls)

	require.Len(t, store.rules, 2)
	var ids []string
	for i, rule := range store.rules {
		ids = append(ids, rule.Reference.ID)
		assert.Equal(t, "skyrim", store.ruleGame[i])
		assert.Equal(t, "my-mod", store.ruleMod[i])
	}
	assert.ElementsMatch(t, []string{"already-installed", "fresh-mod-installed"}, ids)
}

func TestInstallRecommendations_SkipsWhenNoneSelected(t *testing.T) {
	r := &Resolver{
		Store:   newFakeStore(),
		Dialogs: &fakeDialogs{selection: ports.RecommendationSelection{Install: false}},
		Gather: func(ctx context.Context, rules []model.ModRule, gameID string, recommended bool) ([]model.Dependency, []model.DependencyError, error) {
			return []model.Dependency{{Reference: model.Reference{ID: "x"}}}, nil, nil
		},
		Consumer: consumer.Noop(),
	}
	err := r.InstallRecommendations(context.Background(), "default", "skyrim", "my-mod", nil)
	require.NoError(t, err)
}

func TestResolver_ConcurrencyDefaultsAndOverrides(t *testing.T) {
	r := &Resolver{}
	assert.Equal(t, MaxParallelism, r.concurrency())

	r.Concurrency = 2
	assert.Equal(t, 2, r.concurrency())
}

func TestRepairRules_ClearsIDOnlyWhenFuzzy(t *testing.T) {
	store := newFakeStore()
	r := &Resolver{Store: store, Consumer: consumer.Noop()}

	rules := []model.ModRule{
		{Type: model.RuleRequires, Reference: model.Reference{ID: "gone-fuzzy", FileMD5: "abc"}},
		{Type: model.RuleRequires, Reference: model.Reference{ID: "gone-exact"}},
	}
	out := r.repairRules("skyrim", rules)
	assert.Equal(t, "", out[0].Reference.ID)
	assert.Equal(t, "gone-exact", out[1].Reference.ID)
}
