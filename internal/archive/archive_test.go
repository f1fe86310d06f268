package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relkit/internal/config"
)

func stagingDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Thrones_0.5.0_linux64")
	files := map[string]string{
		"thrones":            "binary",
		"README.md":          "# Thrones\n",
		"data/settings.ini":  "[general]\n",
		"doc/manual/help.md": "help\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestWriteZip_PrefixesStagingDir(t *testing.T) {
	dir := stagingDir(t)
	dst := filepath.Join(t.TempDir(), "Thrones_0.5.0_linux64.zip")

	info, err := Write(config.ArchiveZip, dst, dir)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Entries)
	assert.Positive(t, info.Size)

	zr, err := zip.OpenReader(dst)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		assert.Equal(t, zip.Deflate, f.Method)
	}
	assert.Equal(t, []string{
		"Thrones_0.5.0_linux64/README.md",
		"Thrones_0.5.0_linux64/data/settings.ini",
		"Thrones_0.5.0_linux64/doc/manual/help.md",
		"Thrones_0.5.0_linux64/thrones",
	}, names)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "[general]\n", string(content))
}

func TestWriteTarGz_ContainsTree(t *testing.T) {
	dir := stagingDir(t)
	dst := filepath.Join(t.TempDir(), "Thrones_0.5.0_linux64.tar.gz")

	info, err := Write(config.ArchiveTarGz, dst, dir)
	require.NoError(t, err)
	assert.Equal(t, config.ArchiveTarGz, info.Format)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	contents := map[string]string{}
	var dirs []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag == tar.TypeDir {
			dirs = append(dirs, hdr.Name)
			continue
		}
		b, err := io.ReadAll(tr)
		require.NoError(t, err)
		contents[hdr.Name] = string(b)
		assert.Empty(t, hdr.Uname)
	}
	sort.Strings(dirs)
	assert.Equal(t, []string{
		"Thrones_0.5.0_linux64/",
		"Thrones_0.5.0_linux64/data/",
		"Thrones_0.5.0_linux64/doc/",
		"Thrones_0.5.0_linux64/doc/manual/",
	}, dirs)
	assert.Equal(t, "binary", contents["Thrones_0.5.0_linux64/thrones"])
	assert.Len(t, contents, 4)
}

func TestWrite_UnknownFormat(t *testing.T) {
	_, err := Write("rar", filepath.Join(t.TempDir(), "x.rar"), stagingDir(t))
	require.Error(t, err)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".zip", Extension(config.ArchiveZip))
	assert.Equal(t, ".tar.gz", Extension(config.ArchiveTarGz))
}

func TestUpdateChecksums_MergesEntries(t *testing.T) {
	out := t.TempDir()
	a := filepath.Join(out, "Thrones_0.5.0_win64.zip")
	b := filepath.Join(out, "Thrones_0.5.0_linux64.tar.gz")
	require.NoError(t, os.WriteFile(a, []byte("windows"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("linux"), 0o600))
	manifest := filepath.Join(out, "SHA256SUMS")

	_, err := UpdateChecksums(manifest, a)
	require.NoError(t, err)
	sums, err := UpdateChecksums(manifest, b)
	require.NoError(t, err)

	// sha256("linux")
	assert.Equal(t, "caf90169eefa5f807d577486b9f795ab86ae2983c5c20806cff959117e90af18", sums[b])

	entries, err := ReadChecksums(manifest)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, sums[b], entries["Thrones_0.5.0_linux64.tar.gz"])

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{64}  Thrones_0\.5\.0_linux64\.tar\.gz\n[0-9a-f]{64}  Thrones_0\.5\.0_win64\.zip\n$`, string(data))
}

func TestReadChecksums_Malformed(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "SHA256SUMS")
	require.NoError(t, os.WriteFile(manifest, []byte("not a checksum\n"), 0o600))
	_, err := ReadChecksums(manifest)
	require.Error(t, err)
}
