// Package policy implements the Replace/Version decision table
// (spec.md §4.7): what happens to a pre-existing catalogue entry when a
// freshly-derived mod id collides with one, or when an older install of
// the same download already exists.
package policy

import (
	"context"

	"github.com/pkg/errors"

	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

// attributesStrippedOnReplace are dropped from a replaced mod's copied
// attributes; they describe the old file and would otherwise shadow
// the newly-installed one's own values (spec.md §4.7).
var attributesStrippedOnReplace = []string{
	model.KeyVersion, model.KeyFileName, model.KeyFileVersion,
}

// CollisionOutcome is the derived effect of a name-collision decision.
type CollisionOutcome struct {
	ModID      string
	Attributes model.ModInfo
	Enabled    bool
	// RemovedPriorModID is set on Replace, so the caller can issue the
	// store removal and remember the prior enabled state.
	RemovedPriorModID string
}

// ResolveNameCollision implements the first row of spec.md §4.7's
// table: prompts the user via dialogs and returns the effect of their
// choice, or a UserCanceled error.
func ResolveNameCollision(ctx context.Context, dialogs ports.Dialogs, baseID string, existing ports.ModSummary, variantSuffix string) (CollisionOutcome, error) {
	decision, err := dialogs.NameCollision(ctx, existing)
	if err != nil {
		return CollisionOutcome{}, err
	}

	switch decision {
	case ports.NameCollisionCancel:
		return CollisionOutcome{}, ierrors.NewUserCanceled("user declined to resolve a name collision")

	case ports.NameCollisionAddVariant:
		return CollisionOutcome{
			ModID:      baseID + "+" + variantSuffix,
			Attributes: model.ModInfo{},
			Enabled:    false,
		}, nil

	case ports.NameCollisionReplace:
		attrs := existing.Attributes.Clone().Without(attributesStrippedOnReplace...)
		return CollisionOutcome{
			ModID:             baseID,
			Attributes:        attrs,
			Enabled:           existing.Enabled,
			RemovedPriorModID: existing.ModID,
		}, nil

	default:
		return CollisionOutcome{}, errors.Errorf("unrecognised name collision decision: %v", decision)
	}
}

// VersionOutcome is the derived effect of a version-choice decision.
type VersionOutcome struct {
	ModID             string
	InheritRules      []model.ModRule
	InheritOverrides  []ports.FileOverride
	RemovedPriorModID string
	EnableIfPrior     bool
}

// ResolveVersionChoice implements the second row of spec.md §4.7's
// table.
func ResolveVersionChoice(ctx context.Context, dialogs ports.Dialogs, newID string, prior ports.ModSummary) (VersionOutcome, error) {
	decision, err := dialogs.VersionChoice(ctx, prior)
	if err != nil {
		return VersionOutcome{}, err
	}

	switch decision {
	case ports.VersionChoiceCancel:
		return VersionOutcome{}, ierrors.NewUserCanceled("user declined to resolve a version conflict")

	case ports.VersionChoiceReplace:
		return VersionOutcome{
			ModID:             prior.ModID,
			InheritRules:      prior.Rules,
			InheritOverrides:  prior.FileOverrides,
			RemovedPriorModID: prior.ModID,
			EnableIfPrior:     prior.Enabled,
		}, nil

	case ports.VersionChoiceInstall:
		return VersionOutcome{
			ModID:         newID,
			EnableIfPrior: prior.Enabled,
		}, nil

	default:
		return VersionOutcome{}, errors.Errorf("unrecognised version choice decision: %v", decision)
	}
}

// IsSameFile reports whether prior is a prior install of exactly the
// same download, per spec.md §4.5 step 6:
// newestFileId == currentFileId == fullInfo.fileId.
func IsSameFile(prior ports.ModSummary, currentFileID string) bool {
	return prior.NewestFileID == currentFileID && prior.FileID == currentFileID
}
