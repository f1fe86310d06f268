package readme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReadme = `# Thrones

A board game.

Libraries used: SDL2, libpng, libjpeg, FreeType.

## Build

The CMakeLists.txt is written for CMake 3.10.2.
Run cmake in a build directory.

### Windows
Use Visual Studio.
`

func TestPatch_RemovesBuildInstructions(t *testing.T) {
	got := Patch(sampleReadme, Options{})
	assert.Equal(t, "# Thrones\n\nA board game.\n\nLibraries used: SDL2, libpng, libjpeg, FreeType.\n\n", got)
}

func TestPatch_InsertsMessage(t *testing.T) {
	msg := "To run the program you need to have the Microsoft Visual C++ Redistributable 2019 64-bit installed.  \n"
	got := Patch(sampleReadme, Options{Message: msg, DropLibjpeg: true})
	assert.Equal(t, "# Thrones\n\nA board game.\n\nLibraries used: SDL2, libpng, FreeType.\n\n"+msg, got)
}

func TestPatch_MessageIsLiteral(t *testing.T) {
	got := Patch("## Build\nThe CMakeLists.txt", Options{Message: "costs $1"})
	assert.Equal(t, "costs $1", got)
}

func TestPatch_NoBuildSection(t *testing.T) {
	src := "# Thrones\n\nNothing else.\n"
	assert.Equal(t, src, Patch(src, Options{}))
}

func TestPatchFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(src, []byte(sampleReadme), 0o600))
	dst := filepath.Join(dir, "stage", "README.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o750))

	patched, err := PatchFile(src, dst, Options{})
	require.NoError(t, err)

	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, patched, written)
	assert.NotContains(t, string(written), "CMakeLists")

	_, err = PatchFile(filepath.Join(dir, "absent.md"), dst, Options{})
	require.Error(t, err)
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML([]byte("# Thrones\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"), "Thrones <0.5>")
	require.NoError(t, err)
	s := string(html)
	assert.Contains(t, s, "<title>Thrones &lt;0.5&gt;</title>")
	assert.Contains(t, s, "<h1>Thrones</h1>")
	assert.Contains(t, s, "<table>")
}

func TestMissingLinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "doc"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc", "manual.md"), nil, 0o600))

	md := []byte("See [manual](doc/manual.md), [rules](doc/rules.md#setup), " +
		"[site](https://example.com), [top](#thrones) and ![logo](rsc/thrones.png).\n" +
		"Again [rules](doc/rules.md).\n")

	assert.Equal(t, []string{"doc/rules.md", "rsc/thrones.png"}, MissingLinks(md, root))
}
