package utils

import (
	"path"
	"strings"
)

// TrimExt removes the last extension of the final path element.
// "docs/logo.PNG" becomes "docs/logo"; dotfiles keep their name.
func TrimExt(p string) string {
	base := path.Base(p)
	ext := path.Ext(base)
	if ext == "" || ext == base {
		return p
	}
	return strings.TrimSuffix(p, ext)
}

// SanitizeName makes a remote display name usable as a single path segment.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	switch name {
	case "", ".", "..":
		return "_"
	}
	return name
}

// StripScope reports whether p lives below scope and returns p relative to it.
// An empty scope matches everything.
func StripScope(p, scope string) (string, bool) {
	if scope == "" {
		return p, true
	}
	prefix := strings.TrimSuffix(scope, "/") + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return strings.TrimPrefix(p, prefix), true
}

// ScopedPath joins a request path onto scope and rejects anything that would
// escape it.
func ScopedPath(scope, rel string) (string, bool) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return "", false
		}
	}
	if scope == "" {
		return rel, true
	}
	return path.Join(scope, rel), true
}

// TopLevel returns the first segment of a slash path.
func TopLevel(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
