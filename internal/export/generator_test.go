package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/shell"
)

// invocation is a command flattened for comparison: dir relative to the root.
type invocation struct {
	Dir  string
	Argv []string
}

func flatten(t *testing.T, root string, cmds []shell.Command) []invocation {
	t.Helper()
	out := make([]invocation, 0, len(cmds))
	for _, c := range cmds {
		rel, err := filepath.Rel(root, c.Dir)
		require.NoError(t, err)
		out = append(out, invocation{Dir: filepath.ToSlash(rel), Argv: append([]string{c.Name}, c.Args...)})
	}
	return out
}

func TestGenerate_Linux(t *testing.T) {
	root := t.TempDir()
	runner := &shell.RecordingRunner{}
	g := NewGenerator(root, config.Default(), runner)

	require.NoError(t, g.Generate(context.Background(), "glinux", GenerateOptions{Threads: 4}))

	want := []invocation{
		{Dir: "build_lnx", Argv: []string{"cmake", "..", "-DCMAKE_BUILD_TYPE=Release"}},
		{Dir: "build_lnx", Argv: []string{"make", "-j", "4"}},
	}
	if diff := cmp.Diff(want, flatten(t, root, runner.Commands)); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	assert.DirExists(t, filepath.Join(root, "build_lnx"))
}

func TestGenerate_GLESDebug(t *testing.T) {
	root := t.TempDir()
	runner := &shell.RecordingRunner{}

	require.NoError(t, NewGenerator(root, config.Default(), runner).
		Generate(context.Background(), "ggles", GenerateOptions{Debug: true, Threads: 2}))

	require.Len(t, runner.Commands, 2)
	assert.Equal(t, []string{"..", "-DOPENGLES=1", "-DCMAKE_BUILD_TYPE=Debug"}, runner.Commands[0].Args)
}

func TestGenerate_VisualStudioIsMultiConfig(t *testing.T) {
	root := t.TempDir()
	runner := &shell.RecordingRunner{}

	require.NoError(t, NewGenerator(root, config.Default(), runner).
		Generate(context.Background(), "gwin64", GenerateOptions{Threads: 2}))

	want := []invocation{
		{Dir: "build_win64", Argv: []string{"cmake", "..", "-G", "Visual Studio 16", "-A", "x64"}},
	}
	if diff := cmp.Diff(want, flatten(t, root, runner.Commands)); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_WebBuildsAssetsAndMovesThem(t *testing.T) {
	root := t.TempDir()
	runner := &shell.RecordingRunner{
		OnRun: func(c shell.Command) error {
			// the assets make step produces data and licenses under build_wgl/bin
			if c.Name == "make" && filepath.Base(c.Dir) == "build_wgl" {
				writeTree(t, root, map[string]string{
					"build_wgl/bin/data/thrones.png":  "png",
					"build_wgl/bin/data/settings.ini": "ini",
					"build_wgl/bin/licenses/SDL2.txt": "zlib",
				})
			}
			return nil
		},
	}

	require.NoError(t, NewGenerator(root, config.Default(), runner).
		Generate(context.Background(), "gweb", GenerateOptions{Threads: 3}))

	want := []invocation{
		{Dir: "build_wgl", Argv: []string{"cmake", "..", "-DOPENGLES=1", "-DCMAKE_BUILD_TYPE=Release"}},
		{Dir: "build_wgl", Argv: []string{"make", "-j", "3", "assets"}},
		{Dir: "build_web", Argv: []string{"emcmake", "cmake", "..", "-DCMAKE_BUILD_TYPE=Release"}},
		{Dir: "build_web", Argv: []string{"emmake", "make", "-j", "3"}},
	}
	if diff := cmp.Diff(want, flatten(t, root, runner.Commands)); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}

	assert.FileExists(t, filepath.Join(root, "build_web", "thrones.png"))
	assert.NoFileExists(t, filepath.Join(root, "build_web", "data", "thrones.png"))
	assert.FileExists(t, filepath.Join(root, "build_web", "data", "settings.ini"))
	assert.FileExists(t, filepath.Join(root, "build_web", "licenses", "SDL2.txt"))
	_, err := os.Stat(filepath.Join(root, "build_wgl", "bin", "data"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerate_ToolFailureStopsSequence(t *testing.T) {
	root := t.TempDir()
	runner := &shell.RecordingRunner{FailOn: "cmake"}

	err := NewGenerator(root, config.Default(), runner).Generate(context.Background(), "glinux", GenerateOptions{})
	require.Error(t, err)
	assert.True(t, rkerrors.IsCategory(err, rkerrors.CategoryToolchain))
	assert.Len(t, runner.Commands, 1)
}

func TestGenerate_UnknownTarget(t *testing.T) {
	err := NewGenerator(t.TempDir(), config.Default(), &shell.RecordingRunner{}).
		Generate(context.Background(), "linux", GenerateOptions{})
	require.Error(t, err)
	assert.True(t, rkerrors.IsCategory(err, rkerrors.CategoryValidation))
}
