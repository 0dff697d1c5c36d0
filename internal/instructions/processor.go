// Package instructions implements the Instruction Processor
// (spec.md §4.6): validates, groups, and executes an installer's
// instruction list against a staging directory, in the strict order
// the spec lays out.
package instructions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/itchio/modinstall/internal/consumer"
	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// SubmoduleRunner recursively drives steps 8-13 of the pipeline
// (spec.md §4.5) over a nested archive found at a submodule
// instruction's Path, relative to the parent's staging directory. It
// returns the submodule's own reported mod-type, if any.
type SubmoduleRunner func(ctx context.Context, nestedArchivePath string) (submoduleType string, err error)

// Params bundles everything Process needs to run one instruction list.
type Params struct {
	Instructions []model.Instruction

	// StagingPath is tempPath: where copy.source/submodule.path are
	// resolved from.
	StagingPath string
	// DestinationPath is the final mod directory instructions write
	// into.
	DestinationPath string

	GameID     string
	ModID      string
	ArchiveMD5 string

	Store    ports.Store
	Dialogs  ports.Dialogs
	Consumer consumer.Consumer

	RunSubmodule SubmoduleRunner
}

// Result summarises what running the instruction list accomplished.
type Result struct {
	ModType      string
	MissingFiles []string
}

// Process runs the twelve steps of spec.md §4.6 against Instructions,
// in order. Non-fatal per-instruction errors never abort the run; only
// a fatal "error" instruction (or invalid params) does.
func Process(ctx context.Context, p Params) (Result, error) {
	var res Result

	valid, invalidCount := validate(p.DestinationPath, p.Instructions)
	if invalidCount > 0 {
		p.Consumer.Warnf("dropped %d instruction(s) with invalid destinations", invalidCount)
	}

	groups := group(valid)

	if err := reportErrors(p, groups[model.InstructionError]); err != nil {
		return res, err
	}

	reportUnsupported(p, groups[model.InstructionUnsupported])

	if err := runMkdir(p, groups[model.InstructionMkdir]); err != nil {
		return res, err
	}

	missing, err := runCopy(p, groups[model.InstructionCopy])
	if err != nil {
		return res, err
	}
	res.MissingFiles = missing
	if len(missing) > 0 {
		p.Dialogs.Notify(ctx, "Some files were not installed",
			fmt.Sprintf("%d file(s) referenced by the installer for %s were missing from the archive", len(missing), p.ModID),
			ports.NotifyWarning, false)
	}

	if err := runGenerateFile(p, groups[model.InstructionGenerateFile]); err != nil {
		return res, err
	}

	if err := runIniEdit(p, groups[model.InstructionIniEdit]); err != nil {
		return res, err
	}

	submoduleType, err := runSubmodules(ctx, p, groups[model.InstructionSubmodule])
	if err != nil {
		return res, err
	}
	if submoduleType != "" {
		res.ModType = submoduleType
		if err := p.Store.SetModType(p.GameID, p.ModID, submoduleType); err != nil {
			return res, errors.WithStack(err)
		}
	}

	if err := runAttributes(p, groups[model.InstructionAttribute]); err != nil {
		return res, err
	}

	if modType := lastSetModType(p, groups[model.InstructionSetModType]); modType != "" {
		res.ModType = modType
		if err := p.Store.SetModType(p.GameID, p.ModID, modType); err != nil {
			return res, errors.WithStack(err)
		}
	}

	if err := runRules(p, groups[model.InstructionRule]); err != nil {
		return res, err
	}

	return res, nil
}

// validate drops instructions with unsanitizable destinations, per
// spec.md §4.6 step 1: "yield per-instruction errors without aborting".
func validate(destRoot string, in []model.Instruction) ([]model.Instruction, int) {
	out := make([]model.Instruction, 0, len(in))
	invalid := 0
	for _, ins := range in {
		if !model.IsKnownType(ins.Type) {
			invalid++
			continue
		}
		if requiresDestination(ins.Type) {
			if _, err := sanitizeDestination(destRoot, ins.Destination); err != nil {
				invalid++
				continue
			}
		}
		out = append(out, ins)
	}
	return out, invalid
}

func requiresDestination(t model.InstructionType) bool {
	switch t {
	case model.InstructionCopy, model.InstructionMkdir, model.InstructionGenerateFile, model.InstructionIniEdit:
		return true
	default:
		return false
	}
}

// group partitions by type, per spec.md §4.6 step 2. Types outside the
// closed set were already dropped in validate.
func group(in []model.Instruction) map[model.InstructionType][]model.Instruction {
	out := make(map[model.InstructionType][]model.Instruction)
	for _, ins := range in {
		out[ins.Type] = append(out[ins.Type], ins)
	}
	return out
}

// reportErrors implements spec.md §4.6 step 3.
func reportErrors(p Params, errs []model.Instruction) error {
	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		if e.Value == "fatal" {
			return ierrors.NewProcessCanceled(fmt.Sprintf("installer reported a fatal error: %s", e.Source))
		}
	}
	for _, e := range errs {
		p.Consumer.Warnf("installer error (non-fatal): %s (%s)", e.Value, e.Source)
	}
	p.Dialogs.Notify(context.Background(), "Installer reported errors", fmt.Sprintf("%d non-fatal error(s) during install of %s", len(errs), p.ModID), ports.NotifyWarning, false)
	return nil
}

// reportUnsupported implements spec.md §4.6 step 4.
func reportUnsupported(p Params, unsupported []model.Instruction) {
	if len(unsupported) == 0 {
		return
	}
	var names []string
	for _, u := range unsupported {
		names = append(names, u.Source)
	}
	p.Dialogs.Notify(context.Background(), "Unsupported installer feature",
		fmt.Sprintf("%s uses features butler-style install doesn't implement: %s (archive %s)", p.ModID, strings.Join(names, ", "), p.ArchiveMD5),
		ports.NotifyInfo, true)
}

// runMkdir implements spec.md §4.6 step 5.
func runMkdir(p Params, dirs []model.Instruction) error {
	for _, d := range dirs {
		dest, err := sanitizeDestination(p.DestinationPath, d.Destination)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := os.MkdirAll(dest, 0755); err != nil {
			return errors.Wrapf(err, "mkdir %s", dest)
		}
	}
	return nil
}

// runCopy implements spec.md §4.6 step 6: group by source, copy every
// destination but the last, move (rename, falling back to copy on
// permission errors) the last one. Determinism follows the order
// destinations were declared for that source, per spec.md §9.
func runCopy(p Params, copies []model.Instruction) ([]string, error) {
	bySource := make(map[string][]string)
	var order []string
	for _, c := range copies {
		if _, ok := bySource[c.Source]; !ok {
			order = append(order, c.Source)
		}
		bySource[c.Source] = append(bySource[c.Source], c.Destination)
	}

	var missing []string
	for _, src := range order {
		dests := bySource[src]
		srcPath := filepath.Join(p.StagingPath, filepath.FromSlash(src))

		if _, err := os.Stat(srcPath); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, src)
				continue
			}
			return missing, errors.Wrapf(err, "stat %s", srcPath)
		}

		last := len(dests) - 1
		for i, destRel := range dests {
			destPath, err := sanitizeDestination(p.DestinationPath, destRel)
			if err != nil {
				return missing, errors.WithStack(err)
			}
			if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
				return missing, errors.Wrapf(err, "mkdir parent of %s", destPath)
			}

			if i < last {
				if err := copyFile(srcPath, destPath); err != nil {
					return missing, errors.Wrapf(err, "copy %s -> %s", srcPath, destPath)
				}
				continue
			}

			// last destination: move, falling back to a plain copy on
			// permission errors (spec.md §4.6 step 6).
			if err := os.Rename(srcPath, destPath); err != nil {
				if os.IsPermission(err) {
					if cerr := copyFile(srcPath, destPath); cerr != nil {
						return missing, errors.Wrapf(cerr, "fallback copy %s -> %s", srcPath, destPath)
					}
					continue
				}
				return missing, errors.Wrapf(err, "move %s -> %s", srcPath, destPath)
			}
		}
	}
	return missing, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// runGenerateFile implements spec.md §4.6 step 7.
func runGenerateFile(p Params, gens []model.Instruction) error {
	for _, g := range gens {
		dest, err := sanitizeDestination(p.DestinationPath, g.Destination)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.Wrapf(err, "mkdir parent of %s", dest)
		}
		if err := os.WriteFile(dest, g.Data, 0644); err != nil {
			return errors.Wrapf(err, "write %s", dest)
		}
	}
	return nil
}

// runIniEdit implements spec.md §4.6 step 8: group by destination, then
// by section, rendering "[section]\nkey = value\n..." with platform
// line endings under "<destinationPath>/Ini Tweaks/<destination>".
func runIniEdit(p Params, edits []model.Instruction) error {
	byDest := make(map[string][]model.Instruction)
	var destOrder []string
	for _, e := range edits {
		if _, ok := byDest[e.Destination]; !ok {
			destOrder = append(destOrder, e.Destination)
		}
		byDest[e.Destination] = append(byDest[e.Destination], e)
	}

	nl := "\n"
	if runtime.GOOS == "windows" {
		nl = "\r\n"
	}

	for _, destRel := range destOrder {
		entries := byDest[destRel]

		bySection := make(map[string][]model.Instruction)
		var sectionOrder []string
		for _, e := range entries {
			if _, ok := bySection[e.Section]; !ok {
				sectionOrder = append(sectionOrder, e.Section)
			}
			bySection[e.Section] = append(bySection[e.Section], e)
		}

		var sb strings.Builder
		for _, section := range sectionOrder {
			sb.WriteString("[" + section + "]" + nl)
			for _, e := range bySection[section] {
				sb.WriteString(e.Key + " = " + e.Value + nl)
			}
		}

		dest, err := sanitizeDestination(filepath.Join(p.DestinationPath, "Ini Tweaks"), destRel)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.Wrapf(err, "mkdir parent of %s", dest)
		}
		if err := os.WriteFile(dest, []byte(sb.String()), 0644); err != nil {
			return errors.Wrapf(err, "write %s", dest)
		}
	}
	return nil
}

// runSubmodules implements spec.md §4.6 step 9.
func runSubmodules(ctx context.Context, p Params, subs []model.Instruction) (string, error) {
	var lastType string
	for _, s := range subs {
		if p.RunSubmodule == nil {
			return lastType, ierrors.NewSetupError("installer emitted a submodule instruction but no submodule runner is configured")
		}
		subType, err := p.RunSubmodule(ctx, s.Path)
		if err != nil {
			return lastType, err
		}
		if s.SubmoduleType != "" {
			lastType = s.SubmoduleType
		} else if subType != "" {
			lastType = subType
		}
	}
	return lastType, nil
}

// runAttributes implements spec.md §4.6 step 10.
func runAttributes(p Params, attrs []model.Instruction) error {
	for _, a := range attrs {
		if err := p.Store.SetAttribute(p.GameID, p.ModID, a.Key, a.Value); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// lastSetModType implements spec.md §4.6 step 11: only the last
// setmodtype instruction's value is persisted; the rest are logged.
func lastSetModType(p Params, types []model.Instruction) string {
	if len(types) == 0 {
		return ""
	}
	if len(types) > 1 {
		for _, t := range types[:len(types)-1] {
			p.Consumer.Warnf("ignoring earlier setmodtype instruction: %s", t.Value)
		}
	}
	return types[len(types)-1].Value
}

// runRules implements spec.md §4.6 step 12.
func runRules(p Params, rules []model.Instruction) error {
	for _, r := range rules {
		if r.Rule == nil {
			continue
		}
		if err := p.Store.AddRule(p.GameID, p.ModID, *r.Rule); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
