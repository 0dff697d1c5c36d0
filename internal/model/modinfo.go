package model

import "github.com/mitchellh/mapstructure"

// ModInfo is the dynamic per-install attribute bag described in
// spec.md §3 and §9 ("Dynamic config bags"). Most callers only care
// about a handful of reserved keys; everything else rides along in the
// open map for the installer/store to interpret.
type ModInfo map[string]interface{}

// Reserved key names, dot-path style, matching spec.md §3.
const (
	KeyDownloadFileMD5  = "download.fileMD5"
	KeyDownloadSize     = "download.size"
	KeyDownloadGame     = "download.game"
	KeyMeta             = "meta"
	KeyChoices          = "choices"
	KeyPrevious         = "previous"
	KeyCustomVariant    = "custom.variant"

	// Per-file descriptive attributes stripped from a replaced mod's
	// inherited attribute bag (spec.md §4.7): they describe the file
	// being replaced, not the one taking its place.
	KeyVersion     = "version"
	KeyFileName    = "fileName"
	KeyFileVersion = "fileVersion"
)

// DownloadInfo is the typed view over the download.* reserved keys.
type DownloadInfo struct {
	FileMD5 string `mapstructure:"fileMD5"`
	Size    int64  `mapstructure:"size"`
	Game    string `mapstructure:"game"`
}

// Download decodes the download.* keys into a DownloadInfo. Absent keys
// decode to zero values, never an error.
func (m ModInfo) Download() DownloadInfo {
	raw := map[string]interface{}{
		"fileMD5": m[KeyDownloadFileMD5],
		"size":    m[KeyDownloadSize],
		"game":    m[KeyDownloadGame],
	}
	var d DownloadInfo
	_ = mapstructure.Decode(raw, &d)
	return d
}

// Meta decodes the "meta" key (the first metadata lookup result merged
// during the lookup-meta pipeline step) into dst.
func (m ModInfo) Meta(dst interface{}) error {
	v, ok := m[KeyMeta]
	if !ok {
		return nil
	}
	return mapstructure.Decode(v, dst)
}

// Previous returns the attribute bag inherited from a replaced mod, or
// nil if this install didn't replace anything.
func (m ModInfo) Previous() ModInfo {
	v, ok := m[KeyPrevious]
	if !ok {
		return nil
	}
	if prev, ok := v.(ModInfo); ok {
		return prev
	}
	if raw, ok := v.(map[string]interface{}); ok {
		return ModInfo(raw)
	}
	return nil
}

// CustomVariant returns the "+variant" suffix chosen during a
// name-collision dialog, or "" if none was assigned.
func (m ModInfo) CustomVariant() string {
	if v, ok := m[KeyCustomVariant]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Clone returns a shallow copy, used when attributes need to be
// inherited minus a few keys (spec.md §4.7's "attributes copied minus
// {version, fileName, fileVersion}").
func (m ModInfo) Clone() ModInfo {
	out := make(ModInfo, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Without returns a clone with the given keys removed.
func (m ModInfo) Without(keys ...string) ModInfo {
	out := m.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
