package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchio/modinstall/internal/model"
	"github.com/itchio/modinstall/internal/ports"
)

func TestStore_SaveGetRemove(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)

	ok, err := s.ModExists("skyrim", "my-mod")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveMod("skyrim", ports.ModSummary{
		GameID:     "skyrim",
		ModID:      "my-mod",
		Attributes: model.ModInfo{"version": "1.0"},
	}))

	ok, err = s.ModExists("skyrim", "my-mod")
	require.NoError(t, err)
	assert.True(t, ok)

	got, ok, err := s.GetMod("skyrim", "my-mod")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1.0", got.Attributes["version"])

	require.NoError(t, s.RemoveMod("skyrim", "my-mod"))
	ok, _ = s.ModExists("skyrim", "my-mod")
	assert.False(t, ok)
}

func TestStore_EnabledStateIsPerProfile(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)

	require.NoError(t, s.SaveMod("skyrim", ports.ModSummary{GameID: "skyrim", ModID: "my-mod"}))
	require.NoError(t, s.SetEnabled("default", "skyrim", "my-mod", true))

	enabled, err := s.IsEnabled("default", "skyrim", "my-mod")
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = s.IsEnabled("other-profile", "skyrim", "my-mod")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestStore_SetAttributeAndAddRule(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	require.NoError(t, s.SaveMod("skyrim", ports.ModSummary{GameID: "skyrim", ModID: "my-mod"}))

	require.NoError(t, s.SetAttribute("skyrim", "my-mod", "author", "jane"))
	require.NoError(t, s.AddRule("skyrim", "my-mod", model.ModRule{
		Type:      model.RuleRequires,
		Reference: model.Reference{ID: "dep-mod"},
	}))

	got, _, _ := s.GetMod("skyrim", "my-mod")
	assert.Equal(t, "jane", got.Attributes["author"])
	require.Len(t, got.Rules, 1)
	assert.Equal(t, "dep-mod", got.Rules[0].Reference.ID)
}

func TestStore_PersistsAndReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogue.toml")

	s1, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveMod("skyrim", ports.ModSummary{
		GameID:       "skyrim",
		ModID:        "my-mod",
		NewestFileID: "file-42",
		Rules: []model.ModRule{
			{Type: model.RuleRequires, Reference: model.Reference{ID: "dep-mod"}},
		},
	}))
	require.NoError(t, s1.SetEnabled("default", "skyrim", "my-mod", true))

	s2, err := New(path)
	require.NoError(t, err)

	got, ok, err := s2.GetMod("skyrim", "my-mod")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "file-42", got.NewestFileID)
	require.Len(t, got.Rules, 1)
	assert.Equal(t, "dep-mod", got.Rules[0].Reference.ID)

	enabled, err := s2.IsEnabled("default", "skyrim", "my-mod")
	require.NoError(t, err)
	assert.True(t, enabled)
}
