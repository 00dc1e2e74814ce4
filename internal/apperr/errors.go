// Package apperr holds the error kinds shared by backends, the host
// controller and the HTTP layer.
package apperr

import "errors"

var (
	ErrAccessDenied  = errors.New("access denied")
	ErrNotFound      = errors.New("not found")
	ErrInvalidPath   = errors.New("invalid path")
	ErrWriteFailed   = errors.New("write failed")
	ErrUserCancelled = errors.New("user cancelled")
)

// Wire names for the error kinds.
const (
	KindAccessDenied  = "access_denied"
	KindNotFound      = "not_found"
	KindInvalidPath   = "invalid_path"
	KindWriteFailed   = "write_failed"
	KindUserCancelled = "user_cancelled"
	KindInternal      = "internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrUserCancelled, KindUserCancelled},
	{ErrAccessDenied, KindAccessDenied},
	{ErrInvalidPath, KindInvalidPath},
	{ErrNotFound, KindNotFound},
	{ErrWriteFailed, KindWriteFailed},
}

// Kind returns the wire name of the first known kind err wraps, or
// KindInternal. A nil error has no kind.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// FromKind maps a wire name back to its sentinel. Unknown names map to nil.
func FromKind(kind string) error {
	for _, k := range kinds {
		if k.kind == kind {
			return k.err
		}
	}
	return nil
}

// IsCancelled reports whether err means the user declined, as opposed to a
// storage or access failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled)
}
