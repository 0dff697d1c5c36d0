package installer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchio/modinstall/internal/model"
)

type stubInstaller struct {
	name      string
	supported bool
}

func (s stubInstaller) TestSupported(ctx context.Context, files []string, gameID string) (model.TestSupportedResult, error) {
	return model.TestSupportedResult{Supported: s.supported}, nil
}

func (s stubInstaller) Install(ctx context.Context, files []string, tempDir string, gameID string, progress model.ProgressFunc, choices map[string]interface{}, unattended bool) ([]model.Instruction, error) {
	return nil, nil
}

func TestRegistry_FindReturnsFirstSupportedInPriorityOrder(t *testing.T) {
	r := New()
	r.Register(10, stubInstaller{name: "fomod", supported: false})
	r.Register(5, stubInstaller{name: "simple", supported: true})
	r.Register(5, stubInstaller{name: "simple-tiebreak", supported: true})

	found, ok, err := r.Find(context.Background(), nil, "skyrim")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "simple", found.(stubInstaller).name)
}

func TestRegistry_FindReturnsFalseWhenNoneSupported(t *testing.T) {
	r := New()
	r.Register(1, stubInstaller{supported: false})
	_, ok, err := r.Find(context.Background(), nil, "skyrim")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListInstaller_AlwaysSupportedAndReturnsFixedInstructions(t *testing.T) {
	instr := []model.Instruction{{Type: model.InstructionMkdir, Destination: "x"}}
	li := &ListInstaller{Instructions: instr}

	res, err := li.TestSupported(context.Background(), nil, "skyrim")
	require.NoError(t, err)
	assert.True(t, res.Supported)

	got, err := li.Install(context.Background(), nil, "", "skyrim", nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, instr, got)
}
