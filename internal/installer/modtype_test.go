package installer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchio/modinstall/internal/model"
)

type stubTester struct {
	typeID   string
	priority int
	matches  bool
}

func (s stubTester) TypeID() string   { return s.typeID }
func (s stubTester) Priority() int    { return s.priority }
func (s stubTester) Test(ctx context.Context, instructions []model.Instruction) (bool, error) {
	return s.matches, nil
}

func TestModTypeRegistry_DeterminePrefersHigherPriority(t *testing.T) {
	r := NewModTypeRegistry()
	r.Register("skyrim", stubTester{typeID: "low", priority: 1, matches: true})
	r.Register("skyrim", stubTester{typeID: "high", priority: 10, matches: true})

	got, err := r.Determine(context.Background(), nil, "skyrim")
	require.NoError(t, err)
	assert.Equal(t, "high", got)
}

func TestModTypeRegistry_DetermineNoneMatch(t *testing.T) {
	r := NewModTypeRegistry()
	r.Register("skyrim", stubTester{typeID: "x", priority: 1, matches: false})

	got, err := r.Determine(context.Background(), nil, "skyrim")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestModTypeRegistry_ScopedPerGame(t *testing.T) {
	r := NewModTypeRegistry()
	r.Register("skyrim", stubTester{typeID: "skyrim-type", priority: 1, matches: true})

	got, err := r.Determine(context.Background(), nil, "fallout4")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
