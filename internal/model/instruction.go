package model

// InstructionType is the closed set of install actions an installer can
// emit, per spec.md §4.1.
type InstructionType string

const (
	InstructionCopy         InstructionType = "copy"
	InstructionMkdir        InstructionType = "mkdir"
	InstructionSubmodule    InstructionType = "submodule"
	InstructionGenerateFile InstructionType = "generatefile"
	InstructionIniEdit      InstructionType = "iniedit"
	InstructionUnsupported  InstructionType = "unsupported"
	InstructionAttribute    InstructionType = "attribute"
	InstructionSetModType   InstructionType = "setmodtype"
	InstructionError        InstructionType = "error"
	InstructionRule         InstructionType = "rule"
)

// knownInstructionTypes backs IsKnownType, used by the processor's
// validate step to drop anything outside the closed set (spec.md §4.6
// step 2).
var knownInstructionTypes = map[InstructionType]bool{
	InstructionCopy:         true,
	InstructionMkdir:        true,
	InstructionSubmodule:    true,
	InstructionGenerateFile: true,
	InstructionIniEdit:      true,
	InstructionUnsupported:  true,
	InstructionAttribute:    true,
	InstructionSetModType:   true,
	InstructionError:        true,
	InstructionRule:         true,
}

// IsKnownType reports whether t belongs to the closed instruction set.
func IsKnownType(t InstructionType) bool {
	return knownInstructionTypes[t]
}

// Instruction is a single primitive install action. Only the fields
// relevant to Type are meaningful; this mirrors the tagged-union shape
// installers return, kept flat the way butler keeps InstallResult.Files
// a flat slice rather than a sum type hierarchy.
type Instruction struct {
	Type InstructionType

	// copy
	Source      string
	Destination string

	// mkdir reuses Destination.

	// generatefile
	Data []byte // Destination reused

	// iniedit
	Section string
	Key     string
	Value   string

	// submodule
	Path          string // nested archive path, relative to tempPath
	SubmoduleType string
	// Key reused as the submodule's logical key/name.

	// attribute reuses Key/Value.

	// setmodtype reuses Value.

	// rule
	Rule *ModRule

	// unsupported reuses Source.

	// error
	// Value holds the error message or "fatal"; Source optionally
	// names the offending file.
}
