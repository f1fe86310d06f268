package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ProductName turns the configured project name into the capitalised form
// used in package names ("thrones" -> "Thrones").
func ProductName(name string) string {
	return cases.Title(language.Und, cases.NoLower).String(name)
}

// StagingName returns "<Product>_<version>_<suffix>".
func StagingName(product, version, suffix string) string {
	return fmt.Sprintf("%s_%s_%s", product, version, suffix)
}

// ReadVersion extracts the first capture group of pattern from the file at path.
func ReadVersion(path, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("version pattern: %w", err)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("read version file: %w", err)
	}
	m := re.FindSubmatch(data)
	if m == nil || len(m) < 2 {
		return "", fmt.Errorf("failed to find %s in %s", pattern, path)
	}
	return string(m[1]), nil
}
