package vc

import "regexp"

// conflictLine matches git's conflict reporting, e.g.
//
//	CONFLICT (content): Merge conflict in internal/foo.go
//	CONFLICT (add/add): Merge conflict in README.md
//
// grounded on the "parse plumbing text with regexp, fall back to raw
// stderr" idiom used for warning extraction in the teacher's DAG code.
var conflictLine = regexp.MustCompile(`(?m)^CONFLICT \([^)]*\):\s*(?:Merge conflict in\s*)?(.+)$`)

// ParseConflicts extracts the conflicting file paths from git stderr output.
// Per spec.md §4.3/§9, when no CONFLICT lines match, the raw stderr is
// returned verbatim as a single-element list (including when empty).
func ParseConflicts(stderr string) []string {
	matches := conflictLine.FindAllStringSubmatch(stderr, -1)
	if len(matches) == 0 {
		return []string{stderr}
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, m[1])
	}
	return files
}
