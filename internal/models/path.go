// Package models defines the domain types shared by the dialog protocol,
// the host controller and the storage backends.
package models

import "strings"

// ParentMarker is the browse target that navigates one level up.
// It is a command, never a stored path segment.
const ParentMarker = ".."

// Path is a location relative to a backend's root, one element per folder
// level. The empty path is the root.
type Path []string

// ParsePath splits a slash-separated path into segments, dropping empty
// segments so that "", "/" and "//" all denote the root.
func ParsePath(s string) Path {
	parts := strings.Split(s, "/")
	out := make(Path, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String renders the path as "/a/b". The root renders as "/".
func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// IsRoot reports whether p is the backend root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Clone returns a copy that shares no storage with p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Join returns a new path with name appended.
func (p Path) Join(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Parent returns the containing folder and the final segment.
// The root has no parent; Parent returns (root, "") for it.
func (p Path) Parent() (Path, string) {
	if len(p) == 0 {
		return Path{}, ""
	}
	return p[:len(p)-1].Clone(), p[len(p)-1]
}

// Navigate applies a browse target: ParentMarker pops one segment (a no-op
// at the root), anything else is pushed. The receiver is not modified.
func (p Path) Navigate(target string) Path {
	if target == ParentMarker {
		if len(p) == 0 {
			return Path{}
		}
		return p[:len(p)-1].Clone()
	}
	return p.Join(target)
}

// Equal reports whether two paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ValidSegment reports whether s may be stored as a path segment.
func ValidSegment(s string) bool {
	if s == "" || s == "." || s == ParentMarker {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}

// Valid reports whether every segment of p is a valid stored segment.
func (p Path) Valid() bool {
	for _, s := range p {
		if !ValidSegment(s) {
			return false
		}
	}
	return true
}
