// Package pipeline implements the Install Pipeline state machine
// (spec.md §4.5): one archive, taken from "enqueued" through
// extraction, installer selection, and instruction processing, to a
// single terminal state.
//
// Grounded on the sequential, checkpointed stage functions of
// butler's cmd/operate/install_perform.go (doForceLocal, InstallPrepare,
// doInstallPerform), generalised from butler's single itch.io upload
// pipeline to the spec's multi-stage collision/version/submodule flow.
package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/itchio/modinstall/internal/consumer"
	"github.com/itchio/modinstall/internal/extractor"
	"github.com/itchio/modinstall/internal/icontext"
	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/installer"
	"github.com/itchio/modinstall/internal/instructions"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/policy"
	"github.com/itchio/modinstall/internal/ports"
)

// Deps bundles the collaborators the pipeline needs (spec.md §6
// External Interfaces). None are owned by the pipeline: they're all
// ports, supplied by the host application.
type Deps struct {
	InstallDir string

	Registry        *installer.Registry
	ModTypes        *installer.ModTypeRegistry
	Extractor       ports.Extractor
	Store           ports.Store
	Dialogs         ports.Dialogs
	MetadataLookup  ports.MetadataLookup
	EventBus        ports.EventBus
	ConsumerFactory func(component string) consumer.Consumer
}

// Params describes one install(...) call (spec.md §4.5 state 1).
type Params struct {
	Archive model.Archive

	// ForceGameID skips state 2 (resolving-game) when non-empty.
	ForceGameID string

	// FileList, when non-nil, bypasses the registry with a synthesised
	// ListInstaller (spec.md §4.5 state 10).
	FileList []string

	Choices    map[string]interface{}
	Unattended bool

	Profile string
	Enable  bool
}

// Result is what a successful install(...) call returns.
type Result struct {
	GameID string
	ModID  string
	Info   model.ModInfo
}

// Pipeline runs one Params value through every state of spec.md §4.5.
type Pipeline struct {
	deps Deps
}

// New returns a pipeline bound to deps.
func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Run executes states 2 through 15 for params. The caller is
// responsible for serialising calls through the install queue
// (spec.md §5); Run itself is not queue-aware.
func (p *Pipeline) Run(ctx context.Context, params Params) (Result, error) {
	c := p.consumer()
	ic := icontext.New(c)

	gameID, err := p.resolveGame(ctx, params)
	if err != nil {
		return p.fail(ic, err)
	}

	md5sum, size := p.hash(params.Archive.Path, c)

	lookup := p.lookupMeta(ctx, params.Archive, md5sum, size, gameID, c)

	modID, collision, err := p.deriveName(ctx, gameID, params.Archive.Path, lookup.meta)
	if err != nil {
		return p.fail(ic, err)
	}

	modID, versionOutcome, err := p.resolveVersion(ctx, gameID, modID, lookup.fileID)
	if err != nil {
		return p.fail(ic, err)
	}
	removedID := versionOutcome.RemovedPriorModID
	if removedID == "" {
		removedID = collision.RemovedPriorModID
	}
	if removedID != "" {
		if err := p.deps.EventBus.RemoveMod(ctx, gameID, removedID); err != nil {
			return p.fail(ic, err)
		}
		if err := p.deps.Store.RemoveMod(gameID, removedID); err != nil {
			return p.fail(ic, err)
		}
	}

	ic.StartInstall(modID, gameID, params.Archive.ArchiveID)
	destinationPath := filepath.Join(p.deps.InstallDir, gameID, modID)
	tempPath := destinationPath + ".installing"
	ic.SetInstallPath(modID, destinationPath)

	if err := p.deps.EventBus.WillInstallMod(ctx, gameID, params.Archive.ArchiveID, modID, lookup.meta); err != nil {
		return p.cancel(ic, tempPath, err)
	}

	if err := p.extract(ctx, params.Archive, tempPath, ic, c); err != nil {
		return p.cancel(ic, tempPath, err)
	}

	fileList, err := enumerate(tempPath)
	if err != nil {
		return p.cancel(ic, tempPath, errors.WithStack(err))
	}

	inst, err := p.selectInstaller(ctx, params.FileList, fileList, gameID)
	if err != nil {
		return p.cancel(ic, tempPath, err)
	}

	ic.StartIndicator("running installer")
	instructionList, err := inst.Install(ctx, fileList, tempPath, gameID, func(v float64) { pct := v * 100; ic.SetProgress(&pct) }, params.Choices, params.Unattended)
	if err != nil {
		return p.cancel(ic, tempPath, err)
	}
	if instructionList == nil {
		return p.cancel(ic, tempPath, ierrors.NewUserCanceled("installer handled its own cancellation"))
	}
	if len(instructionList) == 0 {
		return p.cancel(ic, tempPath, ierrors.NewProcessCanceled("empty archive or no options selected"))
	}

	existing, hasExisting, err := p.deps.Store.GetMod(gameID, modID)
	if err != nil {
		return p.cancel(ic, tempPath, err)
	}
	modType := ""
	if hasExisting {
		modType = modTypeOf(existing)
	}
	if modType == "" {
		modType, err = p.deps.ModTypes.Determine(ctx, instructionList, gameID)
		if err != nil {
			return p.cancel(ic, tempPath, err)
		}
	}

	procResult, err := instructions.Process(ctx, instructions.Params{
		Instructions:    instructionList,
		StagingPath:     tempPath,
		DestinationPath: destinationPath,
		GameID:          gameID,
		ModID:           modID,
		ArchiveMD5:      md5sum,
		Store:           p.deps.Store,
		Dialogs:         p.deps.Dialogs,
		Consumer:        c,
		RunSubmodule:    p.submoduleRunner(ctx, tempPath, gameID, params, ic, c),
	})
	if err != nil {
		return p.cancel(ic, tempPath, err)
	}
	if procResult.ModType != "" {
		modType = procResult.ModType
	}
	if modType != "" {
		if err := p.deps.Store.SetModType(gameID, modID, modType); err != nil {
			return p.cancel(ic, tempPath, err)
		}
	}

	info := model.ModInfo{
		model.KeyDownloadFileMD5: md5sum,
		model.KeyDownloadSize:    size,
		model.KeyDownloadGame:    gameID,
		model.KeyMeta:            lookup.meta,
	}
	for k, v := range collision.Attributes {
		if _, ok := info[k]; !ok {
			info[k] = v
		}
	}
	if err := os.RemoveAll(tempPath); err != nil {
		c.Warnf("failed to remove staging directory %s: %s", tempPath, err)
	}

	if err := p.deps.Store.SaveMod(gameID, ports.ModSummary{
		GameID:        gameID,
		ModID:         modID,
		Attributes:    info,
		Rules:         versionOutcome.InheritRules,
		FileOverrides: versionOutcome.InheritOverrides,
		Enabled:       params.Enable || versionOutcome.EnableIfPrior || collision.Enabled,
	}); err != nil {
		return p.fail(ic, err)
	}
	if params.Enable || versionOutcome.EnableIfPrior || collision.Enabled {
		if err := p.deps.Store.SetEnabled(params.Profile, gameID, modID, true); err != nil {
			return p.fail(ic, err)
		}
	}

	ic.FinishInstall(model.StatusSuccess, info)
	ic.StopIndicator(&modID)
	p.deps.EventBus.DidInstallMod(gameID, params.Archive.ArchiveID, modID, info)

	return Result{GameID: gameID, ModID: modID, Info: info}, nil
}

func modTypeOf(summary ports.ModSummary) string {
	if summary.Attributes == nil {
		return ""
	}
	if v, ok := summary.Attributes["modType"].(string); ok {
		return v
	}
	return ""
}

func (p *Pipeline) consumer() consumer.Consumer {
	if p.deps.ConsumerFactory != nil {
		return p.deps.ConsumerFactory("pipeline")
	}
	return consumer.New("pipeline")
}

// resolveGame implements spec.md §4.5 state 2.
func (p *Pipeline) resolveGame(ctx context.Context, params Params) (string, error) {
	if params.ForceGameID != "" {
		return params.ForceGameID, nil
	}
	if len(params.Archive.GameIDs) == 1 {
		return params.Archive.GameIDs[0], nil
	}
	gameID, err := p.deps.Dialogs.ResolveGame(ctx, params.Archive.GameIDs)
	if err != nil {
		return "", err
	}
	if gameID == "" {
		return "", ierrors.NewUserCanceled("no game selected")
	}
	return gameID, nil
}

// hash implements spec.md §4.5 state 3: failures are non-fatal.
func (p *Pipeline) hash(path string, c consumer.Consumer) (string, int64) {
	f, err := os.Open(path)
	if err != nil {
		c.Warnf("could not hash %s: %s", path, err)
		return "", 0
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		c.Warnf("could not stat %s: %s", path, err)
		return "", 0
	}

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		c.Warnf("could not hash %s: %s", path, err)
		return "", stat.Size()
	}
	return hex.EncodeToString(h.Sum(nil)), stat.Size()
}

// metaLookupResult is the merged "meta" attribute bag plus the file id
// used later by resolveVersion, per spec.md §4.5 states 4 and 6.
type metaLookupResult struct {
	meta   model.ModInfo
	fileID string
}

// lookupMeta implements spec.md §4.5 state 4.
func (p *Pipeline) lookupMeta(ctx context.Context, archive model.Archive, md5sum string, size int64, gameID string, c consumer.Consumer) metaLookupResult {
	if p.deps.MetadataLookup == nil {
		return metaLookupResult{meta: model.ModInfo{}}
	}
	results, err := p.deps.MetadataLookup.Lookup(ctx, archive.Path, md5sum, size, gameID)
	if err != nil {
		c.Warnf("metadata lookup failed: %s", err)
		return metaLookupResult{meta: model.ModInfo{}}
	}
	if len(results) == 0 {
		return metaLookupResult{meta: model.ModInfo{}}
	}
	first := results[0]
	return metaLookupResult{
		meta: model.ModInfo{
			"modId":       first.ModID,
			"fileId":      first.FileID,
			"sourceURI":   first.SourceURI,
			"logicalName": first.LogicalName,
			"fileMD5":     first.FileMD5,
		},
		fileID: first.FileID,
	}
}

// deriveName implements spec.md §4.5 state 5, including the collision
// loop delegated to the policy package.
func (p *Pipeline) deriveName(ctx context.Context, gameID, archivePath string, meta model.ModInfo) (string, policy.CollisionOutcome, error) {
	base := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	candidateID := base
	variant := 0
	var lastOutcome policy.CollisionOutcome

	for {
		exists, err := p.deps.Store.ModExists(gameID, candidateID)
		if err != nil {
			return "", policy.CollisionOutcome{}, err
		}
		if !exists {
			return candidateID, lastOutcome, nil
		}

		existing, _, err := p.deps.Store.GetMod(gameID, candidateID)
		if err != nil {
			return "", policy.CollisionOutcome{}, err
		}

		variant++
		outcome, err := policy.ResolveNameCollision(ctx, p.deps.Dialogs, base, existing, strconv.Itoa(variant))
		if err != nil {
			return "", policy.CollisionOutcome{}, err
		}
		if outcome.RemovedPriorModID != "" {
			return outcome.ModID, outcome, nil
		}
		lastOutcome = outcome
		candidateID = outcome.ModID
	}
}

// resolveVersion implements spec.md §4.5 state 6.
func (p *Pipeline) resolveVersion(ctx context.Context, gameID, modID, fileID string) (string, policy.VersionOutcome, error) {
	if fileID == "" {
		return modID, policy.VersionOutcome{}, nil
	}
	prior, ok, err := p.deps.Store.GetMod(gameID, modID)
	if err != nil {
		return "", policy.VersionOutcome{}, err
	}
	if !ok || !policy.IsSameFile(prior, fileID) {
		return modID, policy.VersionOutcome{}, nil
	}
	outcome, err := policy.ResolveVersionChoice(ctx, p.deps.Dialogs, modID, prior)
	if err != nil {
		return "", policy.VersionOutcome{}, err
	}
	return outcome.ModID, outcome, nil
}

// extract implements spec.md §4.5 state 8, including the
// not-an-archive fallback.
func (p *Pipeline) extract(ctx context.Context, archive model.Archive, tempPath string, ic *icontext.InstallContext, c consumer.Consumer) error {
	ic.StartIndicator("extracting")
	result, err := p.deps.Extractor.ExtractFull(ctx, archive, tempPath, func(v float64) { pct := v * 100; ic.SetProgress(&pct) }, func(ctx context.Context) (string, error) {
		return p.deps.Dialogs.PasswordPrompt(ctx)
	})
	if err != nil {
		return err
	}

	classified := extractor.Classify(result)
	if classified == nil {
		if result.Code != 0 {
			allowContinue := true
			ok, err := p.deps.Dialogs.ContinueOnExtractionErrors(ctx, result.Errors, allowContinue)
			if err != nil {
				return err
			}
			if !ok {
				return ierrors.NewUserCanceled("user declined to continue past extraction errors")
			}
		}
		return nil
	}

	if ierrors.Is(classified, ierrors.ArchiveBroken) && !extractor.IsKnownArchiveExtension(archive.Path) {
		ok, err := p.deps.Dialogs.NotAnArchive(ctx, archive.Path)
		if err != nil {
			return err
		}
		if !ok {
			return classified
		}
		if err := os.MkdirAll(tempPath, 0755); err != nil {
			return errors.WithStack(err)
		}
		return copyAsSingleFile(archive.Path, tempPath)
	}
	return classified
}

func copyAsSingleFile(src, destDir string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close()

	dest := filepath.Join(destDir, filepath.Base(src))
	out, err := os.Create(dest)
	if err != nil {
		return errors.WithStack(err)
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return errors.WithStack(err)
}

// enumerate implements spec.md §4.5 state 9: directories keep a
// trailing separator "needed by some installers' stop-folder
// heuristics".
func enumerate(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			rel += "/"
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

// selectInstaller implements spec.md §4.5 state 10: an explicit file
// list bypasses the registry with a synthesised identity-copy
// installer over those paths.
func (p *Pipeline) selectInstaller(ctx context.Context, explicitFileList, enumerated []string, gameID string) (model.Installer, error) {
	if explicitFileList != nil {
		var list []model.Instruction
		for _, f := range explicitFileList {
			if strings.HasSuffix(f, "/") {
				continue
			}
			list = append(list, model.Instruction{Type: model.InstructionCopy, Source: f, Destination: f})
		}
		return &installer.ListInstaller{Instructions: list}, nil
	}
	inst, ok, err := p.deps.Registry.Find(ctx, enumerated, gameID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ierrors.NewSetupError("no installer supports this archive's contents")
	}
	return inst, nil
}

// submoduleRunner builds the recursive submodule callback handed to
// instructions.Process (spec.md §4.6 step 9 / §4.5 "recursively run
// pipeline steps 8-13 on the nested archive").
func (p *Pipeline) submoduleRunner(ctx context.Context, parentTemp, gameID string, params Params, ic *icontext.InstallContext, c consumer.Consumer) instructions.SubmoduleRunner {
	return func(ctx context.Context, nestedArchivePath string) (string, error) {
		nestedArchive := model.Archive{Path: filepath.Join(parentTemp, nestedArchivePath), GameIDs: []string{gameID}}
		nestedTemp := filepath.Join(parentTemp, ".submodule-"+filepath.Base(nestedArchivePath))

		if err := p.extract(ctx, nestedArchive, nestedTemp, ic, c); err != nil {
			return "", err
		}
		defer os.RemoveAll(nestedTemp)

		fileList, err := enumerate(nestedTemp)
		if err != nil {
			return "", errors.WithStack(err)
		}

		inst, err := p.selectInstaller(ctx, params.FileList, fileList, gameID)
		if err != nil {
			return "", err
		}

		instructionList, err := inst.Install(ctx, fileList, nestedTemp, gameID, nil, params.Choices, params.Unattended)
		if err != nil {
			return "", err
		}

		destinationPath := strings.TrimSuffix(parentTemp, ".installing")
		res, err := instructions.Process(ctx, instructions.Params{
			Instructions:    instructionList,
			StagingPath:     nestedTemp,
			DestinationPath: destinationPath,
			GameID:          gameID,
			Store:           p.deps.Store,
			Dialogs:         p.deps.Dialogs,
			Consumer:        c,
		})
		if err != nil {
			return "", err
		}
		return res.ModType, nil
	}
}

// cancel tears down staging and marks the context as either canceled
// or failed, per spec.md §5's cancellation cleanup contract.
func (p *Pipeline) cancel(ic *icontext.InstallContext, tempPath string, err error) (Result, error) {
	if rmErr := os.RemoveAll(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
		ic.ReportError("Could not clean up", "Please remove "+tempPath+" manually", false, nil)
	}
	status := model.StatusFailed
	if ierrors.Is(err, ierrors.UserCanceled) {
		status = model.StatusCanceled
	}
	ic.FinishInstall(status, nil)
	ic.StopIndicator(nil)
	return Result{}, err
}

// fail is used for errors raised before a staging directory exists.
func (p *Pipeline) fail(ic *icontext.InstallContext, err error) (Result, error) {
	status := model.StatusFailed
	if ierrors.Is(err, ierrors.UserCanceled) {
		status = model.StatusCanceled
	}
	ic.FinishInstall(status, nil)
	return Result{}, err
}
