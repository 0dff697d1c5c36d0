package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// stdinDialogs answers every interactive decision point by prompting
// on the terminal, the way DonovanMods/lmm's promptSelection/
// promptMultiSelection helpers read a line and parse a choice — here
// generalised from "pick files from a list" to the install manager's
// fixed set of yes/no and three-way decisions.
type stdinDialogs struct {
	reader     *bufio.Reader
	unattended bool
}

func newStdinDialogs(unattended bool) *stdinDialogs {
	return &stdinDialogs{reader: bufio.NewReader(os.Stdin), unattended: unattended}
}

func (d *stdinDialogs) ask(prompt string, def bool) (bool, error) {
	if d.unattended {
		return def, nil
	}
	suffix := "[Y/n]"
	if !def {
		suffix = "[y/N]"
	}
	fmt.Printf("%s %s: ", prompt, suffix)
	line, _ := d.reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	if line == "" {
		return def, nil
	}
	return line == "y" || line == "yes", nil
}

func (d *stdinDialogs) ResolveGame(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", ierrors.NewProcessCanceled("no candidate games for this archive")
	}
	if len(candidates) == 1 || d.unattended {
		return candidates[0], nil
	}
	fmt.Println("Multiple games match this archive:")
	for i, c := range candidates {
		fmt.Printf("  [%d] %s\n", i+1, c)
	}
	fmt.Print("Install for which? [1]: ")
	line, _ := d.reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return candidates[0], nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(candidates) {
		return "", ierrors.NewUserCanceled("invalid game selection")
	}
	return candidates[n-1], nil
}

func (d *stdinDialogs) NameCollision(ctx context.Context, existing ports.ModSummary) (ports.NameCollisionDecision, error) {
	if d.unattended {
		return ports.NameCollisionAddVariant, nil
	}
	fmt.Printf("A mod named %q is already installed. [r]eplace, [v]ariant, [c]ancel? [v]: ", existing.ModID)
	line, _ := d.reader.ReadString('\n')
	switch strings.TrimSpace(strings.ToLower(line)) {
	case "r", "replace":
		return ports.NameCollisionReplace, nil
	case "c", "cancel":
		return ports.NameCollisionCancel, nil
	default:
		return ports.NameCollisionAddVariant, nil
	}
}

func (d *stdinDialogs) VersionChoice(ctx context.Context, prior ports.ModSummary) (ports.VersionChoiceDecision, error) {
	if d.unattended {
		return ports.VersionChoiceReplace, nil
	}
	fmt.Printf("A version of %q is already installed. [r]eplace, [i]nstall alongside, [c]ancel? [r]: ", prior.ModID)
	line, _ := d.reader.ReadString('\n')
	switch strings.TrimSpace(strings.ToLower(line)) {
	case "i", "install":
		return ports.VersionChoiceInstall, nil
	case "c", "cancel":
		return ports.VersionChoiceCancel, nil
	default:
		return ports.VersionChoiceReplace, nil
	}
}

func (d *stdinDialogs) ContinueOnExtractionErrors(ctx context.Context, messages []string, allowContinue bool) (bool, error) {
	for _, m := range messages {
		fmt.Println("  extraction warning:", m)
	}
	if !allowContinue {
		return false, nil
	}
	return d.ask("Continue despite extraction warnings?", false)
}

func (d *stdinDialogs) NotAnArchive(ctx context.Context, path string) (bool, error) {
	return d.ask(fmt.Sprintf("%s doesn't look like an archive. Install it as a single file?", path), true)
}

func (d *stdinDialogs) PasswordPrompt(ctx context.Context) (string, error) {
	if d.unattended {
		return "", ierrors.NewUserCanceled("archive is password-protected")
	}
	fmt.Print("Archive password: ")
	line, _ := d.reader.ReadString('\n')
	return strings.TrimSpace(line), nil
}

func (d *stdinDialogs) Notify(ctx context.Context, title, body string, kind ports.NotifyKind, reportable bool) {
	prefix := "info"
	switch kind {
	case ports.NotifyWarning:
		prefix = "warning"
	case ports.NotifyError:
		prefix = "error"
	}
	fmt.Printf("[%s] %s: %s\n", prefix, title, body)
}

func (d *stdinDialogs) DependencyPrompt(ctx context.Context, modName string, instCount, dlCount int, errs []model.DependencyError) (ports.DependencyDecision, error) {
	for _, e := range errs {
		fmt.Printf("  could not resolve dependency %s: %s\n", e.Reference.ID, e.Message)
	}
	ok, err := d.ask(fmt.Sprintf("%s needs %d dependencies (%d already cached). Install them?", modName, instCount+dlCount, instCount), true)
	if err != nil {
		return ports.DependencyCancel, err
	}
	if !ok {
		return ports.DependencyCancel, nil
	}
	return ports.DependencyEnable, nil
}

func (d *stdinDialogs) RecommendationPrompt(ctx context.Context, modName string, candidates []model.Dependency) (ports.RecommendationSelection, error) {
	if len(candidates) == 0 {
		return ports.RecommendationSelection{Install: false}, nil
	}
	if d.unattended {
		return ports.RecommendationSelection{Install: false}, nil
	}
	fmt.Printf("%s has %d recommended mods:\n", modName, len(candidates))
	for i, c := range candidates {
		fmt.Printf("  [%d] %s\n", i+1, c.Reference.ID)
	}
	ok, err := d.ask("Install all of them?", true)
	if err != nil || !ok {
		return ports.RecommendationSelection{Install: false}, err
	}
	sel := map[int]bool{}
	for i := range candidates {
		sel[i] = true
	}
	return ports.RecommendationSelection{Selected: sel, Install: true}, nil
}
