// Package loader reads vulnerability identifiers from text input.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// identifierPattern accepts year based identifiers such as CVE-2023-1234
// or PYSEC-2021-1234, plus GHSA advisory identifiers whose suffix is three
// four character groups.
var identifierPattern = regexp.MustCompile(`^(?i:[A-Z]+(?:-[A-Z]+)*-\d{4}-\d{4,}|GHSA(?:-[A-Z0-9]{4}){3})$`)

// InputError reports that the identifier input could not be read.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("read identifiers from %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Load reads identifiers from the file at path. A missing or unreadable
// file returns an InputError.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer file.Close()

	ids, err := Parse(file)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return ids, nil
}

// Parse reads one identifier per line, trims surrounding whitespace, and
// drops blank lines and lines starting with '#'. Duplicates are removed
// case-insensitively, keeping the first spelling and its position. An
// empty input yields an empty list.
func Parse(r io.Reader) ([]string, error) {
	ids := []string{}
	seen := map[string]bool{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key := strings.ToUpper(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ValidIdentifier reports whether id looks like a vulnerability identifier.
// Validation is separate from parsing so that callers decide how to treat
// the malformed entries a file may carry.
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}
