package davlock

import (
	"strings"
)

// CanonicalPath converts a resource path into the form used by the lock index:
// no leading or trailing slash, segments separated by a single '/', and the
// namespace root as the empty string. "/a/b/", "a/b" and "/a/b" all map to "a/b".
//
// Paths containing empty, "." or ".." segments, backslashes, control
// characters or URL components (scheme, query, fragment) are rejected with
// ErrInvalidArgument. Comparison of canonical paths is byte wise.
func CanonicalPath(p string) (string, error) {
	if strings.Contains(p, "://") {
		return "", invalidArgf("path %q is an absolute url", p)
	}
	if i := strings.IndexAny(p, "\\?#"); i >= 0 {
		return "", invalidArgf("path %q contains invalid character %q", p, p[i])
	}
	for i := 0; i < len(p); i++ {
		if p[i] < 0x20 || p[i] == 0x7f {
			return "", invalidArgf("path %q contains a control character", p)
		}
	}

	trimmed := strings.TrimPrefix(p, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return "", nil
	}

	for _, segment := range strings.Split(trimmed, "/") {
		switch segment {
		case "":
			return "", invalidArgf("path %q contains an empty segment", p)
		case ".", "..":
			return "", invalidArgf("path %q contains a relative segment", p)
		}
	}
	return trimmed, nil
}

// parentPath returns the parent of a canonical path.
// The second return value is false for the root.
func parentPath(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i], true
	}
	return "", true
}

// isDescendant reports whether p is a strict descendant of ancestor (both canonical)
func isDescendant(p, ancestor string) bool {
	if ancestor == "" {
		return p != ""
	}
	return len(p) > len(ancestor)+1 && p[len(ancestor)] == '/' && strings.HasPrefix(p, ancestor)
}
