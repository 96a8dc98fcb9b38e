package scanner

import (
	"path/filepath"
	"strings"
)

// ignoreRule is one line of an .esfixignore file. Rules follow gitignore
// semantics: `!` negates, a trailing `/` restricts the rule to directory
// components, a leading `/` anchors it to the ignore file's directory, and
// `**` spans any number of path segments.
type ignoreRule struct {
	raw      string
	negated  bool
	dirOnly  bool
	anchored bool
	segs     []string
}

func parseIgnoreRule(line string) ignoreRule {
	r := ignoreRule{raw: line}
	if strings.HasPrefix(line, "!") {
		r.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.anchored = true
		line = line[1:]
	}
	r.segs = strings.Split(line, "/")
	return r
}

// matches reports whether rel (slash-separated, relative to the scan root)
// is covered by this rule. Directory rules match when any directory
// component span matches; file rules must match through the final segment.
func (r ignoreRule) matches(rel string) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")

	for start := 0; start < len(parts); start++ {
		if r.anchored && start != 0 {
			break
		}
		if r.dirOnly {
			// The matched span must leave at least the file name behind.
			if matchPrefix(r.segs, parts[start:len(parts)-1]) {
				return true
			}
		} else if matchAll(r.segs, parts[start:]) {
			return true
		}
	}
	return false
}

// matchAll requires the rule segments to consume every path segment.
func matchAll(segs, parts []string) bool {
	if len(segs) == 0 {
		return len(parts) == 0
	}
	if segs[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchAll(segs[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 || !matchSegment(segs[0], parts[0]) {
		return false
	}
	return matchAll(segs[1:], parts[1:])
}

// matchPrefix is satisfied once every rule segment is consumed, regardless
// of remaining path segments.
func matchPrefix(segs, parts []string) bool {
	if len(segs) == 0 {
		return true
	}
	if segs[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchPrefix(segs[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 || !matchSegment(segs[0], parts[0]) {
		return false
	}
	return matchPrefix(segs[1:], parts[1:])
}

// matchSegment compares one rule segment against one path segment. Glob
// metacharacters use filepath.Match, which cannot cross a separator, so a
// single `*` stays within the segment as gitignore requires.
func matchSegment(seg, part string) bool {
	if strings.ContainsAny(seg, "*?[") {
		ok, err := filepath.Match(seg, part)
		return err == nil && ok
	}
	return strings.EqualFold(seg, part)
}
