package file

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ListEntry is one line of an input list. Delimiter and Encoding are the
// optional overrides as written; empty means detect.
type ListEntry struct {
	Path      string
	Delimiter string
	Encoding  string
}

// ReadList reads an input list file: one input per line, as
//
//	path[<TAB>delimiter[<TAB>encoding]]
//
// with blank lines and lines starting with '#' ignored. An override of "" or
// "-" means detect. Relative paths are resolved against the list file's
// directory so a list can travel with its inputs. Order is preserved.
func ReadList(path string) ([]ListEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	base := filepath.Dir(path)
	var out []ListEntry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) > 3 {
			return nil, fmt.Errorf("read list %s: line %d: want at most 3 tab-separated fields, got %d", path, lineNo, len(fields))
		}
		e := ListEntry{Path: strings.TrimSpace(fields[0])}
		if len(fields) > 1 {
			e.Delimiter = override(fields[1])
		}
		if len(fields) > 2 {
			e.Encoding = override(fields[2])
		}
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(base, e.Path)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return out, nil
}

func override(s string) string {
	s = strings.TrimSpace(s)
	if s == "-" {
		return ""
	}
	return s
}
