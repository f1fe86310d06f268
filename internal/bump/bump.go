// Package bump rewrites the version strings scattered across the project's
// build and packaging metadata. Every edit is a line-oriented regular
// expression substitution; lines that are not targeted stay byte-identical.
package bump

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/logfields"
)

// Values carries the new version in the shapes the different files need.
type Values struct {
	Version   string          // as typed by the user
	Semver    *semver.Version // parsed form
	Increment int             // added to Android version codes
}

// NewValues validates version and builds the substitution values.
func NewValues(version string, increment int) (Values, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return Values{}, rkerrors.ValidationFailed("version", fmt.Sprintf("invalid version %q: %v", version, err))
	}
	return Values{Version: version, Semver: v, Increment: increment}, nil
}

// resourceVersion renders the four-part numeric version used by Windows
// resource scripts, e.g. 0.5.2 -> 0,5,2,0.
func (v Values) resourceVersion() string {
	return fmt.Sprintf("%d,%d,%d,0", v.Semver.Major(), v.Semver.Minor(), v.Semver.Patch())
}

// numericVersion is the version without pre-release or metadata, as CMake accepts it.
func (v Values) numericVersion() string {
	return fmt.Sprintf("%d.%d.%d", v.Semver.Major(), v.Semver.Minor(), v.Semver.Patch())
}

// FileResult reports what happened to one configured file.
type FileResult struct {
	Path    string
	Kind    config.VersionFileKind
	Skipped bool // optional file not present
	Code    int  // new version code for gradle/manifest files
}

// Apply patches every configured file below root in order. It stops at the
// first failure; files patched before it keep their new contents.
func Apply(root string, files []config.VersionFile, v Values) ([]FileResult, error) {
	results := make([]FileResult, 0, len(files))
	for _, f := range files {
		path := f.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}

		res := FileResult{Path: f.Path, Kind: f.Kind}
		code, err := PatchFile(path, f.Kind, v)
		switch {
		case errors.Is(err, fs.ErrNotExist) && f.Optional:
			slog.Debug("Optional version file not present", logfields.Path(f.Path))
			res.Skipped = true
		case err != nil:
			return results, rkerrors.PatchFailed(f.Path, err)
		default:
			res.Code = code
			slog.Info("Updated version", logfields.Path(f.Path), logfields.Version(v.Version))
		}
		results = append(results, res)
	}
	return results, nil
}

// PatchFile rewrites the file at path according to kind. It returns the new
// version code for file kinds that carry one.
func PatchFile(path string, kind config.VersionFileKind, v Values) (int, error) {
	p, ok := patchers[kind]
	if !ok {
		return 0, fmt.Errorf("unsupported version file kind %q", kind)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, err
	}

	lines := splitLines(string(data))
	code, err := p(lines, v)
	if err != nil {
		return 0, err
	}

	out := strings.Join(lines, "")
	if out == string(data) {
		return code, nil
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return 0, err
	}
	return code, nil
}

// splitLines splits text after each newline, keeping the terminators so the
// file can be reassembled exactly.
func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
