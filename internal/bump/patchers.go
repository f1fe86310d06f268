package bump

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/relkit/internal/config"
)

// patcher edits lines in place and returns a version code when the file has one.
type patcher func(lines []string, v Values) (int, error)

var patchers = map[config.VersionFileKind]patcher{
	config.KindHeader:   patchHeader,
	config.KindGradle:   patchGradle,
	config.KindManifest: patchManifest,
	config.KindPlist:    patchPlist,
	config.KindResource: patchResource,
	config.KindDesktop:  patchDesktop,
	config.KindCMake:    patchCMake,
	config.KindDoxygen:  patchDoxygen,
}

var firstNumber = regexp.MustCompile(`\d+`)

func patchHeader(lines []string, v Values) (int, error) {
	_, err := findReplace(lines, `char\s*commonVersion\[.*\]\s*=`, `".*"`, `"`+v.Version+`"`, 0)
	return 0, err
}

// patchGradle bumps the integer after versionCode and sets versionName.
func patchGradle(lines []string, v Values) (int, error) {
	code, err := incrementCode(lines, v.Increment, func(body string, code int) string {
		loc := firstNumber.FindStringIndex(body)
		return body[:loc[0]] + strconv.Itoa(code) + body[loc[1]:]
	})
	if err != nil {
		return 0, err
	}
	if _, err := findReplace(lines, `versionName`, `".*"`, `"`+v.Version+`"`, 0); err != nil {
		return 0, err
	}
	return code, nil
}

func patchManifest(lines []string, v Values) (int, error) {
	codeAttr := regexp.MustCompile(`versionCode=".*?"`)
	code, err := incrementCode(lines, v.Increment, func(body string, code int) string {
		return codeAttr.ReplaceAllLiteralString(body, `versionCode="`+strconv.Itoa(code)+`"`)
	})
	if err != nil {
		return 0, err
	}
	if _, err := findReplace(lines, `versionName`, `versionName=".*?"`, `versionName="`+v.Version+`"`, 0); err != nil {
		return 0, err
	}
	return code, nil
}

// patchPlist sets the <string> following CFBundleVersion and, when present,
// CFBundleShortVersionString.
func patchPlist(lines []string, v Values) (int, error) {
	const value = `<string>.*</string>`
	repl := "<string>" + v.Version + "</string>"

	lid, err := findLine(lines, `<key>CFBundleVersion</key>`, 0)
	if err != nil {
		return 0, err
	}
	if _, err := findReplace(lines, value, value, repl, lid+1); err != nil {
		return 0, err
	}

	if sid, err := findLine(lines, `<key>CFBundleShortVersionString</key>`, 0); err == nil {
		if _, err := findReplace(lines, value, value, repl, sid+1); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func patchResource(lines []string, v Values) (int, error) {
	const numeric = `\d+,\d+,\d+,\d+`
	const quoted = `,\s*".*"`

	edits := []struct{ cond, pattern, repl string }{
		{`FILEVERSION`, numeric, v.resourceVersion()},
		{`PRODUCTVERSION`, numeric, v.resourceVersion()},
		{`"FileVersion"`, quoted, `, "` + v.Version + `"`},
		{`"ProductVersion"`, quoted, `, "` + v.Version + `"`},
	}
	for _, e := range edits {
		if _, err := findReplace(lines, e.cond, e.pattern, e.repl, 0); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func patchDesktop(lines []string, v Values) (int, error) {
	_, err := findReplace(lines, `Version\s*=`, `=.*`, "="+v.Version, 0)
	return 0, err
}

// patchCMake sets the VERSION argument of the project() call, which may span
// several lines.
func patchCMake(lines []string, v Values) (int, error) {
	const versionArg = `VERSION\s+[0-9.]+`
	lid, err := findLine(lines, `(?i)^\s*project\s*\(`, 0)
	if err != nil {
		return 0, err
	}
	re := regexp.MustCompile(versionArg)
	for i := lid; i < len(lines); i++ {
		if re.MatchString(lines[i]) {
			editBody(lines, i, func(body string) string {
				return re.ReplaceAllLiteralString(body, "VERSION "+v.numericVersion())
			})
			return 0, nil
		}
		if strings.Contains(lines[i], ")") {
			break
		}
	}
	return 0, fmt.Errorf("failed to find %s", versionArg)
}

func patchDoxygen(lines []string, v Values) (int, error) {
	_, err := findReplace(lines, `PROJECT_NUMBER\s*=`, `=.*`, "= "+v.Version, 0)
	return 0, err
}

// findLine returns the index of the first line at or after from matching pattern.
func findLine(lines []string, pattern string, from int) (int, error) {
	re := regexp.MustCompile(pattern)
	for i := from; i < len(lines); i++ {
		if re.MatchString(lines[i]) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("failed to find %s", pattern)
}

// findReplace replaces pattern with repl on the first line matching cond.
func findReplace(lines []string, cond, pattern, repl string, from int) (int, error) {
	i, err := findLine(lines, cond, from)
	if err != nil {
		return -1, err
	}
	re := regexp.MustCompile(pattern)
	editBody(lines, i, func(body string) string {
		return re.ReplaceAllLiteralString(body, repl)
	})
	return i, nil
}

// incrementCode reads the first integer on the first versionCode line, adds inc
// and lets set write the new code into the line.
func incrementCode(lines []string, inc int, set func(body string, code int) string) (int, error) {
	lid, err := findLine(lines, `versionCode`, 0)
	if err != nil {
		return 0, err
	}
	body, _ := splitEOL(lines[lid])
	m := firstNumber.FindString(body)
	if m == "" {
		return 0, fmt.Errorf("failed to find %s", firstNumber)
	}
	current, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("parse version code %q: %w", m, err)
	}
	code := current + inc
	editBody(lines, lid, func(body string) string { return set(body, code) })
	return code, nil
}

// editBody applies fn to line i without its line terminator.
func editBody(lines []string, i int, fn func(string) string) {
	body, eol := splitEOL(lines[i])
	lines[i] = fn(body) + eol
}

func splitEOL(line string) (string, string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}
