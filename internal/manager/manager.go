// Package manager wires the Installer Registry, Install Pipeline,
// Install Queue, and Dependency Resolver into the single external API
// described by spec.md §6: register_installer, install,
// installDependencies, installRecommendations.
//
// Grounded on the thin top-level dispatch shown in butler's
// cmd/operate/install_perform.go (InstallPerform loading a context and
// delegating to doInstallPerform) and the router/Register idiom in
// endpoints/profile/profile.go, generalised here into a single struct
// rather than a message-bus registration table since the install
// manager's surface is a handful of fixed operations, not an
// open-ended RPC namespace.
package manager

import (
	"context"
	"strings"

	"github.com/itchio/modinstall/internal/installer"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/pipeline"
	"github.com/itchio/modinstall/internal/ports"
	"github.com/itchio/modinstall/internal/queue"
	"github.com/itchio/modinstall/internal/resolver"
)

// Manager is the install manager's single entry point.
type Manager struct {
	registry *installer.Registry
	modTypes *installer.ModTypeRegistry
	pipeline *pipeline.Pipeline
	resolver *resolver.Resolver
	queue    *queue.Queue

	pipelineDeps pipeline.Deps
}

// Config bundles the collaborators New needs.
type Config struct {
	InstallDir     string
	Store          ports.Store
	Dialogs        ports.Dialogs
	MetadataLookup ports.MetadataLookup
	EventBus       ports.EventBus
	Downloader     ports.Downloader
	Gather         ports.GatherFunc

	// DependencyConcurrency overrides resolver.MaxParallelism when
	// positive; see internal/config.Config.DependencyConcurrency.
	DependencyConcurrency int
}

// New assembles a Manager: a fresh installer registry and mod-type
// registry, a pipeline bound to the given ports, a serial queue, and a
// dependency resolver whose InstallFunc re-enters this same queue
// (spec.md §4.8 step 2, "installModAsync ... re-enters the install
// queue").
func New(cfg Config) *Manager {
	reg := installer.New()
	modTypes := installer.NewModTypeRegistry()
	q := queue.New()

	m := &Manager{
		registry: reg,
		modTypes: modTypes,
		queue:    q,
	}

	m.pipelineDeps = pipeline.Deps{
		InstallDir:     cfg.InstallDir,
		Registry:       reg,
		ModTypes:       modTypes,
		Extractor:      nil, // set via SetExtractor once the host wires an archive codec
		Store:          cfg.Store,
		Dialogs:        cfg.Dialogs,
		MetadataLookup: cfg.MetadataLookup,
		EventBus:       cfg.EventBus,
	}
	m.pipeline = pipeline.New(m.pipelineDeps)

	m.resolver = &resolver.Resolver{
		Store:       cfg.Store,
		Dialogs:     cfg.Dialogs,
		Gather:      cfg.Gather,
		Download:    cfg.Downloader,
		Install:     m.installAsync,
		Concurrency: cfg.DependencyConcurrency,
	}

	return m
}

// SetExtractor binds the archive codec collaborator after
// construction, since it's commonly wired from a separate
// initialization phase than the store/dialogs/event bus (spec.md §1
// lists the extractor as its own out-of-scope collaborator).
func (m *Manager) SetExtractor(ext ports.Extractor) {
	m.pipelineDeps.Extractor = ext
	m.pipeline = pipeline.New(m.pipelineDeps)
}

// RegisterInstaller implements register_installer(priority,
// testSupported, install).
func (m *Manager) RegisterInstaller(priority int, inst model.Installer) {
	m.registry.Register(priority, inst)
}

// RegisterModType implements the mod-type registration half of
// register_installer's family (spec.md §4.5 step 12): installers and
// mod-type testers share a registration surface conceptually, but are
// stored separately since they're consulted at different pipeline
// states.
func (m *Manager) RegisterModType(gameID string, tester model.ModTypeTester) {
	m.modTypes.Register(gameID, tester)
}

// InstallParams mirrors spec.md §6's install(...) call, minus the
// api/info plumbing that's out of scope for this package (callers
// build the model.Archive themselves).
type InstallParams = pipeline.Params

// Install implements install(...): it appends one pipeline run to the
// serial queue and waits for it to finish (spec.md §5).
func (m *Manager) Install(ctx context.Context, params InstallParams) (pipeline.Result, error) {
	res, err := m.queue.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		return m.pipeline.Run(ctx, params)
	})
	if res == nil {
		return pipeline.Result{}, err
	}
	return res.(pipeline.Result), err
}

// installAsync is the resolver.InstallFunc: a dependency re-enters
// the same queue as a regular install, unattended and without further
// dependency processing (spec.md §4.8 step 2).
func (m *Manager) installAsync(ctx context.Context, ref model.Reference, downloadID string, choices map[string]interface{}, fileList []string) (*model.InstalledModRef, error) {
	res, err := m.Install(ctx, InstallParams{
		Archive:    model.Archive{Path: downloadID, GameIDs: []string{}},
		FileList:   fileList,
		Choices:    choices,
		Unattended: true,
	})
	if err != nil {
		return nil, err
	}
	return &model.InstalledModRef{GameID: res.GameID, ModID: res.ModID}, nil
}

// InstallDependencies implements installDependencies(api, profile,
// modId, silent).
func (m *Manager) InstallDependencies(ctx context.Context, profile, gameID, modID string, silent bool) error {
	summary, ok, err := m.pipelineDeps.Store.GetMod(gameID, modID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rules := requiresOnly(summary.Rules)

	m.pipelineDeps.EventBus.WillInstallDependencies(profile, modID, false)
	defer m.pipelineDeps.EventBus.DidInstallDependencies(profile, modID, false)

	return m.resolver.InstallDependencies(ctx, profile, gameID, modID, rules, silent)
}

// InstallRecommendations implements installRecommendations(api,
// profile, modId).
func (m *Manager) InstallRecommendations(ctx context.Context, profile, gameID, modID string) error {
	summary, ok, err := m.pipelineDeps.Store.GetMod(gameID, modID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rules := recommendsOnly(summary.Rules)

	m.pipelineDeps.EventBus.WillInstallDependencies(profile, modID, true)
	defer m.pipelineDeps.EventBus.DidInstallDependencies(profile, modID, true)

	return m.resolver.InstallRecommendations(ctx, profile, gameID, modID, rules)
}

func requiresOnly(rules []model.ModRule) []model.ModRule {
	var out []model.ModRule
	for _, r := range rules {
		if r.Type == model.RuleRequires {
			out = append(out, r)
		}
	}
	return out
}

func recommendsOnly(rules []model.ModRule) []model.ModRule {
	var out []model.ModRule
	for _, r := range rules {
		if r.Type == model.RuleRecommends {
			out = append(out, r)
		}
	}
	return out
}

// browserAssistantAdvisory is swapped in for a well-known
// Windows-specific permission failure that otherwise surfaces an
// unhelpful raw path (spec.md §6).
const browserAssistantAdvisory = "This mod could not be installed because a Windows component (Browser Assistant) is holding a lock on your game's Roaming folder. Close it and try again."

// RewriteKnownError implements spec.md §6's "Browser Assistant"
// error-message heuristic: install errors whose message names that
// path are replaced with a dedicated advisory before being shown.
func RewriteKnownError(message string) string {
	if strings.Contains(message, `Roaming\Browser Assistant`) {
		return browserAssistantAdvisory
	}
	return message
}
