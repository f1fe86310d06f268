package slim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "text/html", MediaType("thrones.html"))
	assert.Equal(t, "text/html", MediaType("INDEX.HTM"))
	assert.Equal(t, "text/css", MediaType("a/b/style.css"))
	assert.Equal(t, "application/javascript", MediaType("thrones.js"))
	assert.Equal(t, "image/svg+xml", MediaType("icon.svg"))
	assert.Equal(t, "application/json", MediaType("manifest.json"))
	assert.Empty(t, MediaType("thrones.wasm"))
}

func TestFile_MinifiesInPlace(t *testing.T) {
	dir := t.TempDir()
	m := New()

	cssPath := write(t, dir, "style.css", "body {\n    margin : 0px ;\n    color: #ffffff;\n}\n")
	res, err := m.File(cssPath)
	require.NoError(t, err)
	data, err := os.ReadFile(cssPath)
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0;color:#fff}", string(data))
	assert.Equal(t, int64(len(data)), res.After)
	assert.Positive(t, res.Saved())

	jsPath := write(t, dir, "thrones.js", "function add ( a , b ) {\n  // sum\n  return a + b ;\n}\n")
	_, err = m.File(jsPath)
	require.NoError(t, err)
	data, err = os.ReadFile(jsPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "// sum")
	assert.NotContains(t, string(data), "\n")

	jsonPath := write(t, dir, "manifest.json", "{\n  \"name\" : \"thrones\",\n  \"v\" : 1\n}\n")
	_, err = m.File(jsonPath)
	require.NoError(t, err)
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"thrones","v":1}`, string(data))

	htmlPath := write(t, dir, "thrones.html", "<!DOCTYPE html>\n<html>\n  <body>\n    <p>  Thrones  </p>\n    <script src=\"thrones.js\"></script>\n  </body>\n</html>\n")
	_, err = m.File(htmlPath)
	require.NoError(t, err)
	data, err = os.ReadFile(htmlPath)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "thrones.js")
	assert.Less(t, len(out), len("<!DOCTYPE html>\n<html>\n  <body>\n    <p>  Thrones  </p>\n    <script src=\"thrones.js\"></script>\n  </body>\n</html>\n"))
	assert.False(t, strings.Contains(out, "\n  "))
}

func TestFile_UnknownFormatLeavesFileAlone(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "thrones.wasm", "\x00asm  raw")

	_, err := New().File(path)
	require.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "unknown format of "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x00asm  raw", string(data))
}

func TestFiles_SkipsUnknownAndStopsOnMissing(t *testing.T) {
	dir := t.TempDir()
	css := write(t, dir, "a.css", "a { color : red ; }")
	txt := write(t, dir, "notes.txt", "keep  me")

	m := New()
	var unknown []string
	m.Unknown = func(err error) { unknown = append(unknown, err.Error()) }

	results, err := m.Files([]string{css, txt})
	require.NoError(t, err)
	assert.Equal(t, []string{"unknown format of " + txt}, unknown)
	require.Len(t, results, 1)
	assert.Equal(t, css, results[0].Path)

	_, err = New().Files([]string{filepath.Join(dir, "absent.css")})
	require.Error(t, err)
}
