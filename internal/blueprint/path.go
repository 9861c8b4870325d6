package blueprint

import (
	"path"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Separator splits path segments.
const Separator = "/"

// CleanPath returns the canonical form of p: NFC-normalized, rooted, with no
// empty, "." or ".." segments and no trailing separator. CleanPath("") is "/".
func CleanPath(p string) string {
	p = norm.NFC.String(p)
	if !strings.HasPrefix(p, Separator) {
		p = Separator + p
	}
	return path.Clean(p)
}

// Join appends name below parent. An empty or root parent yields a top-level
// path.
func Join(parent, name string) string {
	if parent == "" || parent == Separator {
		return CleanPath(name)
	}
	return CleanPath(parent + Separator + name)
}

// Parent returns everything before the last separator. The parent of a
// top-level path is "".
func Parent(p string) string {
	i := strings.LastIndex(p, Separator)
	if i <= 0 {
		return ""
	}
	return p[:i]
}

// Base returns the last segment of p.
func Base(p string) string {
	return p[strings.LastIndex(p, Separator)+1:]
}

// IsPathOrDescendant reports whether p equals root or lies strictly below
// it.
func IsPathOrDescendant(p, root string) bool {
	return p == root || strings.HasPrefix(p, root+Separator)
}

// Ancestors returns the cumulative prefixes of p from the top level down,
// including p itself: "/a/b/c" yields "/a", "/a/b", "/a/b/c".
func Ancestors(p string) []string {
	var out []string
	for i := 1; i < len(p); i++ {
		if p[i] == '/' {
			out = append(out, p[:i])
		}
	}
	if p != "" && p != Separator {
		out = append(out, p)
	}
	return out
}

// TrailingSequence parses the digits after the last underscore of the final
// segment: "/table/box_0042" yields 42.
func TrailingSequence(p string) (int, bool) {
	base := Base(p)
	i := strings.LastIndex(base, "_")
	if i < 0 || i == len(base)-1 {
		return 0, false
	}
	digits := base[i+1:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
