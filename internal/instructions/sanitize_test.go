package instructions

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeDestination_JoinsUnderRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dest")
	got, err := sanitizeDestination(root, "textures/skin.dds")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "textures", "skin.dds"), got)
}

func TestSanitizeDestination_ToleratesLeadingSeparator(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dest")
	got, err := sanitizeDestination(root, "/textures/skin.dds")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "textures", "skin.dds"), got)
}

func TestSanitizeDestination_RejectsEmpty(t *testing.T) {
	_, err := sanitizeDestination(t.TempDir(), "")
	assert.Error(t, err)
}

func TestSanitizeDestination_RejectsTraversal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dest")
	_, err := sanitizeDestination(root, "../../etc/passwd")
	assert.Error(t, err)
}

func TestSanitizeDestination_RejectsReservedName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dest")
	_, err := sanitizeDestination(root, "drivers/con.sys")
	assert.Error(t, err)
}

func TestSanitizeDestination_RejectsTooLong(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dest")
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}
	_, err := sanitizeDestination(root, long)
	assert.Error(t, err)
}
