package strip

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relkit/internal/config"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "\n"},
		{"adds final newline", "int x;", "int x;\n"},
		{"trims surroundings", "\n\n  int x;  \n\n\n", "int x;\n"},
		{"trailing blanks", "a \t\nb  \r\nc", "a\nb\nc\n"},
		{"collapses spaces", "int  x   =    1;", "int x = 1;\n"},
		{"keeps tabs inside lines", "a\t\tb", "a\t\tb\n"},
		{"one blank line kept", "a\n\nb", "a\n\nb\n"},
		{"blank runs collapse", "a\n\n\n\nb", "a\n\nb\n"},
		{"whitespace-only lines collapse", "a\n \n\t\n  \nb", "a\n\nb\n"},
		{"crlf pairs", "a\r\n\r\n\r\n\r\nb\r\n", "a\n\nb\n"},
		{"space before lone carriage return", "a \r \n", "a\n"},
		{"blank exposed by first pass", "a \r \nb", "a\nb\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextIsIdempotent(t *testing.T) {
	alphabet := []string{"a", "b", " ", " ", "\t", "\n", "\n", "\r", "\r\n", "x y"}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		var sb strings.Builder
		n := rng.Intn(40)
		for j := 0; j < n; j++ {
			sb.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		in := sb.String()
		once := Text(in)
		require.Equal(t, once, Text(once), "input %q", in)
	}
}

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary([]byte("plain text")))
	assert.True(t, IsBinary([]byte{'P', 'N', 'G', 0, 1}))

	late := make([]byte, binarySniffLen+10)
	for i := range late {
		late[i] = 'a'
	}
	late[binarySniffLen+5] = 0
	assert.False(t, IsBinary(late), "only the leading bytes are inspected")
}

func TestFile(t *testing.T) {
	dir := t.TempDir()

	dirty := filepath.Join(dir, "dirty.cpp")
	require.NoError(t, os.WriteFile(dirty, []byte("int x;  \n\n\n\n"), 0o640))
	changed, err := File(dirty)
	require.NoError(t, err)
	assert.True(t, changed)
	data, err := os.ReadFile(dirty)
	require.NoError(t, err)
	assert.Equal(t, "int x;\n", string(data))
	info, err := os.Stat(dirty)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	clean := filepath.Join(dir, "clean.cpp")
	require.NoError(t, os.WriteFile(clean, []byte("int y;\n"), 0o600))
	before, err := os.Stat(clean)
	require.NoError(t, err)
	changed, err = File(clean)
	require.NoError(t, err)
	assert.False(t, changed)
	after, err := os.Stat(clean)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "unchanged files are not rewritten")

	bin := filepath.Join(dir, "tex.png")
	raw := []byte("\x89PNG\x00  \n\n\n\n")
	require.NoError(t, os.WriteFile(bin, raw, 0o600))
	changed, err = File(bin)
	require.NoError(t, err)
	assert.False(t, changed)
	data, err = os.ReadFile(bin)
	require.NoError(t, err)
	assert.Equal(t, raw, data)

	_, err = File(filepath.Join(dir, "missing.cpp"))
	assert.Error(t, err)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func TestStripperRun(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/main.cpp":      "int main() {  \n}\n",
		"src/ok.cpp":        "int ok;\n",
		"src/test/text.cpp": "keep   this  \n",
		"CMakeLists.txt":    "project(thrones)\n\n\n\n",
		"rsc/thrones.rc":    "VERSION 1\n",
	})

	cfg := config.StripConfig{
		Roots: []config.StripRoot{
			{Path: "src", Exclude: []string{filepath.Join("src", "test", "text.cpp")}},
			{Path: "tools"},
		},
		Files: []string{"CMakeLists.txt", filepath.Join("rsc", "thrones.rc"), filepath.Join("rsc", "absent.html")},
	}

	var reported []string
	s := New(root, cfg)
	s.Report = func(p string) { reported = append(reported, p) }

	changed, err := s.Run()
	require.NoError(t, err)
	want := []string{filepath.Join("src", "main.cpp"), "CMakeLists.txt"}
	assert.Equal(t, want, changed)
	assert.Equal(t, want, reported)

	data, err := os.ReadFile(filepath.Join(root, "src", "test", "text.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "keep   this  \n", string(data), "excluded file untouched")

	changed, err = s.Run()
	require.NoError(t, err)
	assert.Empty(t, changed, "second run finds nothing to do")
}

func TestStripperCovers(t *testing.T) {
	s := New("/project", config.StripConfig{
		Roots: []config.StripRoot{{Path: "src", Exclude: []string{filepath.Join("src", "test", "text.cpp")}}},
		Files: []string{"CMakeLists.txt"},
	})

	assert.True(t, s.Covers(filepath.Join("src", "game", "map.cpp")))
	assert.True(t, s.Covers("CMakeLists.txt"))
	assert.False(t, s.Covers(filepath.Join("src", "test", "text.cpp")))
	assert.False(t, s.Covers(filepath.Join("srcx", "a.cpp")))
	assert.False(t, s.Covers("README.md"))
}

func TestShouldIgnore(t *testing.T) {
	for _, name := range []string{"a.cpp~", ".a.cpp.swp", "x.swx", ".#lock", "#auto#"} {
		assert.True(t, shouldIgnore(filepath.Join("src", name)), name)
	}
	assert.False(t, shouldIgnore(filepath.Join("src", "map.cpp")))
}

func TestWatchStripsWrittenFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/main.cpp": "int main;\n"})

	var mu sync.Mutex
	var reported []string
	s := New(root, config.StripConfig{
		Roots:    []config.StripRoot{{Path: "src"}},
		Debounce: 20 * time.Millisecond,
	})
	s.Report = func(p string) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	target := filepath.Join(root, "src", "main.cpp")
	stripped := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) > 0
	}
	// keep dirtying the file until the watcher is registered and strips it
	require.Eventually(t, func() bool {
		if stripped() {
			return true
		}
		_ = os.WriteFile(target, []byte("int main;   \n\n\n"), 0o600)
		return false
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, reported, filepath.Join("src", "main.cpp"))
}

func TestWatchSkipsMissingFileParents(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"CMakeLists.txt": "project(thrones)\n"})

	s := New(root, config.StripConfig{
		Files:    []string{"CMakeLists.txt", filepath.Join("rsc", "thrones.rc")},
		Debounce: 20 * time.Millisecond,
	})

	dirs := s.watchDirs()
	require.Len(t, dirs, 1)
	assert.Equal(t, root, dirs[0].path)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("watch stopped early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	cancel()
	require.NoError(t, <-done)
}
