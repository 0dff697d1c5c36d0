package model

// LookupResult is one candidate returned by the metadata lookup
// collaborator (spec.md §1: "lookup(filePath, md5, size, gameId) →
// results").
type LookupResult struct {
	ModID      string
	FileID     string
	SourceURI  string
	LogicalName string
	FileMD5    string
}

// DependencyExtra carries the two recognised extras a dependency gather
// result may attach: the mod-type to set and a custom file name to
// apply after install (spec.md §3).
type DependencyExtra struct {
	Type string
	Name string
}

// Dependency is a single requires/recommends target gathered for one
// source mod, en route to being installed. Built by the resolver and
// discarded after install; nothing else depends on its lifetime.
type Dependency struct {
	Reference       Reference
	LookupResults   []LookupResult
	Download        *string // download id; nil means not yet started
	Mod             *InstalledModRef
	InstallerChoices map[string]interface{}
	FileList        []string
	Extra           DependencyExtra

	// SourceRule is the ModRule this dependency was gathered from, so
	// the resolver can rewrite it in updateRules once installed.
	SourceRule *ModRule
}

// InstalledModRef is the minimal handle the resolver needs once a
// dependency has resolved to an already-installed mod.
type InstalledModRef struct {
	GameID string
	ModID  string
}

// DependencyError is a gather-phase failure for one rule that doesn't
// abort the whole batch; it's recorded for the dialog/notification.
type DependencyError struct {
	Reference Reference
	Message   string
}
