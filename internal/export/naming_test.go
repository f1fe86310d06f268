package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const versionPattern = `char\s*commonVersion\[.*\]\s*=\s*"(.*)"`

func TestProductName(t *testing.T) {
	assert.Equal(t, "Thrones", ProductName("thrones"))
	assert.Equal(t, "Thrones", ProductName("Thrones"))
	assert.Equal(t, "CastleWars", ProductName("castleWars"))
}

func TestStagingName(t *testing.T) {
	assert.Equal(t, "Thrones_0.5.0_linux64", StagingName("Thrones", "0.5.0", "linux64"))
}

func TestReadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.h")
	require.NoError(t, os.WriteFile(path, []byte("#pragma once\n\nconstexpr char commonVersion[] = \"0.5.2\";\n"), 0o600))

	v, err := ReadVersion(path, versionPattern)
	require.NoError(t, err)
	assert.Equal(t, "0.5.2", v)
}

func TestReadVersion_NoMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.h")
	require.NoError(t, os.WriteFile(path, []byte("#pragma once\n"), 0o600))

	_, err := ReadVersion(path, versionPattern)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find")

	_, err = ReadVersion(filepath.Join(t.TempDir(), "absent.h"), versionPattern)
	require.Error(t, err)
}
