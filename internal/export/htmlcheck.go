package export

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// ScriptCheck is the result of inspecting a staged HTML page.
type ScriptCheck struct {
	Scripts []string // local script sources referenced by the page
	Missing []string // referenced scripts absent next to the page
}

// CheckScripts parses the HTML page at path and verifies that every local
// <script src> it references exists relative to the page.
func CheckScripts(path string) (ScriptCheck, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return ScriptCheck{}, err
	}
	defer func() {
		_ = f.Close()
	}()

	doc, err := html.Parse(f)
	if err != nil {
		return ScriptCheck{}, fmt.Errorf("parse %s: %w", path, err)
	}

	var res ScriptCheck
	dir := filepath.Dir(path)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			if src := getAttr(n, "src"); src != "" {
				if local, ok := localScript(src); ok {
					res.Scripts = append(res.Scripts, local)
					if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(local))); err != nil {
						res.Missing = append(res.Missing, local)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return res, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func localScript(src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	return strings.TrimPrefix(u.Path, "./"), true
}
