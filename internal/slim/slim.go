// Package slim minifies web assets in place, selecting the minifier from the
// file extension.
package slim

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"

	"git.home.luguber.info/inful/relkit/internal/logfields"
)

// ErrUnknownFormat is returned for files whose extension has no minifier.
var ErrUnknownFormat = errors.New("unknown format")

var mediaTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".svg":  "image/svg+xml",
	".json": "application/json",
}

// Result describes one minified file.
type Result struct {
	Path   string
	Before int64
	After  int64
}

// Saved returns the number of bytes removed.
func (r Result) Saved() int64 { return r.Before - r.After }

// Minifier dispatches files to the tdewolff minifiers.
type Minifier struct {
	m *minify.M
	// Unknown receives the error for each file skipped by Files because of
	// its extension. It logs a warning by default.
	Unknown func(err error)
}

// New returns a minifier for HTML, CSS, JavaScript, SVG and JSON.
func New() *Minifier {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`[/+]json$`), json.Minify)
	return &Minifier{m: m, Unknown: func(err error) { slog.Warn(err.Error()) }}
}

// MediaType returns the media type minified for path, or "" when unsupported.
func MediaType(path string) string {
	return mediaTypes[strings.ToLower(filepath.Ext(path))]
}

// Bytes minifies data as the given media type.
func (s *Minifier) Bytes(mediaType string, data []byte) ([]byte, error) {
	return s.m.Bytes(mediaType, data)
}

// File minifies path in place. Files with an unsupported extension are left
// untouched and ErrUnknownFormat is returned.
func (s *Minifier) File(path string) (Result, error) {
	res := Result{Path: path}
	mediaType := MediaType(path)
	if mediaType == "" {
		return res, fmt.Errorf("%w of %s", ErrUnknownFormat, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return res, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return res, err
	}
	res.Before = int64(len(data))

	out, err := s.m.Bytes(mediaType, data)
	if err != nil {
		return res, fmt.Errorf("minify %s: %w", path, err)
	}
	res.After = int64(len(out))
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return res, err
	}

	slog.Debug("Minified file",
		logfields.Path(path),
		logfields.Format(mediaType),
		logfields.Size(humanize.Bytes(uint64(res.After))),
		"saved", humanize.Bytes(uint64(max(res.Saved(), 0))))
	return res, nil
}

// Files minifies every path. Unknown formats are reported to Unknown and
// skipped; the first other failure stops the run.
func (s *Minifier) Files(paths []string) ([]Result, error) {
	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		res, err := s.File(p)
		if errors.Is(err, ErrUnknownFormat) {
			s.Unknown(err)
			continue
		}
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
