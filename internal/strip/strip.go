// Package strip normalises whitespace in source and resource files: trailing
// blanks are removed, runs of spaces collapse to one and at most one empty
// line separates paragraphs.
package strip

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/relkit/internal/config"
	"git.home.luguber.info/inful/relkit/internal/logfields"
)

var (
	trailingBlanks = regexp.MustCompile(`[ \t]+\r?\n`)
	repeatedSpaces = regexp.MustCompile(` {2,}`)
	blankLineRuns  = regexp.MustCompile(`([ \t]*\r?\n){3,}`)
)

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 8000

// Text returns s with surrounding whitespace trimmed, a single trailing
// newline, no trailing blanks on any line, no runs of spaces and no more than
// one consecutive empty line. Text(Text(s)) == Text(s).
func Text(s string) string {
	for {
		next := pass(s)
		if next == s {
			return next
		}
		s = next
	}
}

// pass applies the substitutions once. A single pass can leave work behind
// (a space before a lone carriage return becomes trailing once the return is
// consumed), so Text repeats it; each change shrinks the text.
func pass(s string) string {
	out := strings.TrimSpace(s) + "\n"
	out = trailingBlanks.ReplaceAllLiteralString(out, "\n")
	out = repeatedSpaces.ReplaceAllLiteralString(out, " ")
	out = blankLineRuns.ReplaceAllLiteralString(out, "\n\n")
	return out
}

// IsBinary reports whether data looks like a binary file.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// File strips the file at path in place and reports whether it changed.
// Binary files are left alone.
func File(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false, err
	}
	if IsBinary(data) {
		slog.Debug("Skipping binary file", logfields.Path(path))
		return false, nil
	}

	stripped := Text(string(data))
	if stripped == string(data) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(stripped), info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

// Stripper applies a StripConfig below a project root.
type Stripper struct {
	root string
	cfg  config.StripConfig
	// Report is called with the project-relative path of every changed file.
	Report func(path string)
}

// New returns a stripper for the project at root.
func New(root string, cfg config.StripConfig) *Stripper {
	return &Stripper{root: root, cfg: cfg, Report: func(string) {}}
}

// Run strips every configured root and file and returns the changed paths,
// relative to the project root. Missing roots and files are skipped with a warning.
func (s *Stripper) Run() ([]string, error) {
	var changed []string
	for _, r := range s.cfg.Roots {
		paths, err := s.Dir(r)
		changed = append(changed, paths...)
		if err != nil {
			return changed, err
		}
	}
	for _, f := range s.cfg.Files {
		ok, err := s.file(f)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("File to strip not found", logfields.Path(f))
			continue
		}
		if err != nil {
			return changed, err
		}
		if ok {
			changed = append(changed, f)
		}
	}
	return changed, nil
}

// Dir strips every file below root r except the excluded paths.
func (s *Stripper) Dir(r config.StripRoot) ([]string, error) {
	abs := s.abs(r.Path)
	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Directory to strip not found", logfields.Dir(r.Path))
		return nil, nil
	}

	excluded := make(map[string]struct{}, len(r.Exclude))
	for _, e := range r.Exclude {
		excluded[filepath.Clean(e)] = struct{}{}
	}

	var changed []string
	err := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel := s.rel(path)
		if _, skip := excluded[rel]; skip {
			return nil
		}
		ok, err := s.file(rel)
		if err != nil {
			return err
		}
		if ok {
			changed = append(changed, rel)
		}
		return nil
	})
	if err != nil {
		return changed, fmt.Errorf("strip %s: %w", r.Path, err)
	}
	return changed, nil
}

// Covers reports whether the project-relative path is selected by the config.
func (s *Stripper) Covers(rel string) bool {
	rel = filepath.Clean(rel)
	for _, f := range s.cfg.Files {
		if filepath.Clean(f) == rel {
			return true
		}
	}
	for _, r := range s.cfg.Roots {
		root := filepath.Clean(r.Path)
		if rel != root && !strings.HasPrefix(rel, root+string(filepath.Separator)) {
			continue
		}
		for _, e := range r.Exclude {
			if filepath.Clean(e) == rel {
				return false
			}
		}
		return true
	}
	return false
}

func (s *Stripper) file(rel string) (bool, error) {
	ok, err := File(s.abs(rel))
	if err != nil {
		return false, err
	}
	if ok {
		s.Report(rel)
	}
	return ok, nil
}

func (s *Stripper) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.root, rel)
}

func (s *Stripper) rel(abs string) string {
	r, err := filepath.Rel(s.root, abs)
	if err != nil {
		return abs
	}
	return r
}
