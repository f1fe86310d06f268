// Package readme prepares the project README for inclusion in a release package.
package readme

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

var (
	buildHeading  = regexp.MustCompile(`##\sBuild\s*`)
	buildSection  = regexp.MustCompile(`(?s)The\sCMakeLists\.txt.*`)
	libjpegCredit = regexp.MustCompile(`,\slibjpeg`)
)

// Options controls how the README is rewritten for one package.
type Options struct {
	// Message replaces the "## Build" heading, e.g. runtime prerequisites.
	Message string
	// DropLibjpeg removes the libjpeg credit; set for packages that bundle
	// the regular GL data set, which no longer ships JPEG assets.
	DropLibjpeg bool
}

// Patch removes build instructions from a README: the build heading becomes
// opts.Message and everything from the CMakeLists paragraph to the end of the
// text is dropped.
func Patch(src string, opts Options) string {
	out := buildHeading.ReplaceAllLiteralString(src, opts.Message)
	out = buildSection.ReplaceAllLiteralString(out, "")
	if opts.DropLibjpeg {
		out = libjpegCredit.ReplaceAllLiteralString(out, "")
	}
	return out
}

// PatchFile reads the README at src, patches it and writes it to dst.
func PatchFile(src, dst string, opts Options) ([]byte, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read readme: %w", err)
	}
	patched := []byte(Patch(string(data), opts))
	if err := os.WriteFile(dst, patched, 0o644); err != nil { // #nosec G306 -- shipped in the package
		return nil, fmt.Errorf("write readme: %w", err)
	}
	return patched, nil
}

// RenderHTML renders markdown to a standalone HTML page.
func RenderHTML(md []byte, title string) ([]byte, error) {
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := gm.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("render readme: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	page.WriteString(html.EscapeString(title))
	page.WriteString("</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// MissingLinks returns the relative link and image destinations in md that do
// not resolve to a file below root. External URLs and anchors are ignored.
func MissingLinks(md []byte, root string) []string {
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := gm.Parser().Parse(text.NewReader(md))

	var missing []string
	seen := make(map[string]struct{})
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		var dest string
		switch node := n.(type) {
		case *gmast.Link:
			dest = string(node.Destination)
		case *gmast.Image:
			dest = string(node.Destination)
		default:
			return gmast.WalkContinue, nil
		}
		local, ok := localPath(dest)
		if !ok {
			return gmast.WalkContinue, nil
		}
		if _, dup := seen[local]; dup {
			return gmast.WalkContinue, nil
		}
		seen[local] = struct{}{}
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(local))); err != nil {
			missing = append(missing, local)
		}
		return gmast.WalkContinue, nil
	})
	return missing
}

func localPath(dest string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.HasPrefix(u.Path, "/") || u.Path == "" {
		return "", false
	}
	p, err := url.PathUnescape(u.Path)
	if err != nil {
		return "", false
	}
	return p, true
}
