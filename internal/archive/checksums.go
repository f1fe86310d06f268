package archive

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SHA256File returns the hex-encoded SHA-256 digest of the file at path.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// UpdateChecksums records the digests of files in the manifest at manifestPath,
// in the "<sha256>  <name>" format understood by sha256sum -c. Existing entries
// for other files are kept; entries for the given files are replaced. Names are
// relative to the manifest's directory.
func UpdateChecksums(manifestPath string, files ...string) (map[string]string, error) {
	entries, err := ReadChecksums(manifestPath)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(manifestPath)
	sums := make(map[string]string, len(files))
	for _, file := range files {
		sum, err := SHA256File(file)
		if err != nil {
			return nil, fmt.Errorf("checksum %s: %w", file, err)
		}
		name, err := filepath.Rel(baseDir, file)
		if err != nil || strings.HasPrefix(name, "..") {
			name = filepath.Base(file)
		}
		name = filepath.ToSlash(name)
		entries[name] = sum
		sums[file] = sum
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s  %s\n", entries[name], name)
	}
	if err := os.WriteFile(manifestPath, []byte(b.String()), 0o644); err != nil { // #nosec G306 -- published alongside the archives
		return nil, err
	}
	return sums, nil
}

// ReadChecksums parses a checksum manifest into name -> digest. A missing
// manifest yields an empty map.
func ReadChecksums(manifestPath string) (map[string]string, error) {
	entries := make(map[string]string)
	f, err := os.Open(manifestPath)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		sum, name, ok := strings.Cut(text, "  ")
		if !ok || len(sum) != sha256.Size*2 {
			return nil, fmt.Errorf("%s:%d: malformed checksum line", manifestPath, line)
		}
		entries[strings.TrimPrefix(name, "*")] = sum
	}
	return entries, sc.Err()
}
