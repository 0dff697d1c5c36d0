package instructions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchio/modinstall/internal/consumer"
	"github.com/itchio/modinstall/internal/ierrors"
	"github.com/itchio/modinstall/internal/model"
)

func newTestParams(t *testing.T, instructions []model.Instruction) (Params, *fakeStore, *fakeDialogs) {
	staging := t.TempDir()
	dest := t.TempDir()
	store := newFakeStore()
	dialogs := &fakeDialogs{}
	return Params{
		Instructions:    instructions,
		StagingPath:     staging,
		DestinationPath: dest,
		GameID:          "skyrim",
		ModID:           "my-mod",
		ArchiveMD5:      "deadbeef",
		Store:           store,
		Dialogs:         dialogs,
		Consumer:        consumer.Noop(),
	}, store, dialogs
}

func TestProcess_CopyMovesLastDestination(t *testing.T) {
	p, _, _ := newTestParams(t, []model.Instruction{
		{Type: model.InstructionCopy, Source: "readme.txt", Destination: "docs/readme.txt"},
		{Type: model.InstructionCopy, Source: "readme.txt", Destination: "docs/readme-copy.txt"},
	})
	require.NoError(t, os.WriteFile(filepath.Join(p.StagingPath, "readme.txt"), []byte("hello"), 0644))

	res, err := Process(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, res.MissingFiles)

	first, err := os.ReadFile(filepath.Join(p.DestinationPath, "docs", "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(first))

	second, err := os.ReadFile(filepath.Join(p.DestinationPath, "docs", "readme-copy.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(second))

	// Source should no longer exist at its staging path: the last
	// destination for a given source is a move, not a copy.
	_, err = os.Stat(filepath.Join(p.StagingPath, "readme.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcess_CopyReportsMissingSource(t *testing.T) {
	p, _, dialogs := newTestParams(t, []model.Instruction{
		{Type: model.InstructionCopy, Source: "missing.txt", Destination: "missing.txt"},
	})

	res, err := Process(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"missing.txt"}, res.MissingFiles)
	assert.NotEmpty(t, dialogs.notifications)
}

func TestProcess_Mkdir(t *testing.T) {
	p, _, _ := newTestParams(t, []model.Instruction{
		{Type: model.InstructionMkdir, Destination: "textures/armor"},
	})
	_, err := Process(context.Background(), p)
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(p.DestinationPath, "textures", "armor"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestProcess_GenerateFile(t *testing.T) {
	p, _, _ := newTestParams(t, []model.Instruction{
		{Type: model.InstructionGenerateFile, Destination: "generated/config.cfg", Data: []byte("key=value")},
	})
	_, err := Process(context.Background(), p)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(p.DestinationPath, "generated", "config.cfg"))
	require.NoError(t, err)
	assert.Equal(t, "key=value", string(data))
}

func TestProcess_IniEditGroupsBySectionUnderIniTweaks(t *testing.T) {
	p, _, _ := newTestParams(t, []model.Instruction{
		{Type: model.InstructionIniEdit, Destination: "Skyrim.ini", Section: "Display", Key: "iSize", Value: "1920"},
		{Type: model.InstructionIniEdit, Destination: "Skyrim.ini", Section: "Display", Key: "bFull", Value: "0"},
	})
	_, err := Process(context.Background(), p)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(p.DestinationPath, "Ini Tweaks", "Skyrim.ini"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Display]")
	assert.Contains(t, string(data), "iSize = 1920")
	assert.Contains(t, string(data), "bFull = 0")
}

func TestProcess_AttributeAndSetModTypeLastWins(t *testing.T) {
	p, store, _ := newTestParams(t, []model.Instruction{
		{Type: model.InstructionAttribute, Key: "author", Value: "someone"},
		{Type: model.InstructionSetModType, Value: "simple"},
		{Type: model.InstructionSetModType, Value: "complex"},
	})
	res, err := Process(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "complex", res.ModType)
	assert.Equal(t, "complex", store.modTypes["skyrim/my-mod"])
	assert.Equal(t, "someone", store.attrs["author"])
}

func TestProcess_RulePersisted(t *testing.T) {
	rule := &model.ModRule{Type: model.RuleRequires, Reference: model.Reference{ID: "other-mod"}}
	p, store, _ := newTestParams(t, []model.Instruction{
		{Type: model.InstructionRule, Rule: rule},
	})
	_, err := Process(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, store.rules, 1)
	assert.Equal(t, "other-mod", store.rules[0].Reference.ID)
}

func TestProcess_FatalErrorAbortsWithProcessCanceled(t *testing.T) {
	p, _, _ := newTestParams(t, []model.Instruction{
		{Type: model.InstructionError, Value: "fatal", Source: "plugin.esp"},
	})
	_, err := Process(context.Background(), p)
	require.Error(t, err)
	assert.True(t, ierrors.Is(err, ierrors.ProcessCanceled))
}

func TestProcess_NonFatalErrorNotifiesButContinues(t *testing.T) {
	p, _, dialogs := newTestParams(t, []model.Instruction{
		{Type: model.InstructionError, Value: "could not parse optional section", Source: "extra.ini"},
		{Type: model.InstructionMkdir, Destination: "ok"},
	})
	_, err := Process(context.Background(), p)
	require.NoError(t, err)
	assert.NotEmpty(t, dialogs.notifications)
	_, statErr := os.Stat(filepath.Join(p.DestinationPath, "ok"))
	assert.NoError(t, statErr)
}

func TestProcess_UnsupportedNotifiesReportable(t *testing.T) {
	p, _, dialogs := newTestParams(t, []model.Instruction{
		{Type: model.InstructionUnsupported, Source: "patterns"},
	})
	_, err := Process(context.Background(), p)
	require.NoError(t, err)
	assert.NotEmpty(t, dialogs.notifications)
	assert.Equal(t, []bool{true}, dialogs.reportable)
}

func TestProcess_DropsUnknownInstructionType(t *testing.T) {
	p, _, _ := newTestParams(t, []model.Instruction{
		{Type: model.InstructionType("frobnicate"), Destination: "x"},
	})
	_, err := Process(context.Background(), p)
	require.NoError(t, err)
}
