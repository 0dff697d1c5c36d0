package model

import "context"

// ProgressFunc reports installer-internal progress, 0..1.
type ProgressFunc func(value float64)

// TestSupportedResult is returned by Installer.TestSupported.
type TestSupportedResult struct {
	Supported bool
	// RequiredFiles lists files the installer additionally needs read
	// access to beyond the ones it was given (butler-style "required
	// files" probing before a full install attempt).
	RequiredFiles []string
}

// Installer is a pluggable strategy that inspects a file list and emits
// install instructions. Modeled as a behavioural capability, not a class
// hierarchy, per spec.md §9 Design Notes.
type Installer interface {
	TestSupported(ctx context.Context, files []string, gameID string) (TestSupportedResult, error)
	Install(ctx context.Context, files []string, tempDir string, gameID string, progress ProgressFunc, choices map[string]interface{}, unattended bool) ([]Instruction, error)
}

// ModTypeTester classifies an installed mod's deployment behaviour by
// inspecting its instruction list, per spec.md §4.5 step 12.
type ModTypeTester interface {
	TypeID() string
	Priority() int
	Test(ctx context.Context, instructions []Instruction) (bool, error)
}
