package apperr

import (
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("memory: %w: /a", ErrNotFound), KindNotFound},
		{fmt.Errorf("local: %w", ErrInvalidPath), KindInvalidPath},
		{fmt.Errorf("remote: %w", ErrAccessDenied), KindAccessDenied},
		{fmt.Errorf("disk: %w: disk full", ErrWriteFailed), KindWriteFailed},
		{fmt.Errorf("host: %w", ErrUserCancelled), KindUserCancelled},
		{fmt.Errorf("boom"), KindInternal},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.want {
			t.Errorf("Kind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestFromKindRoundTrip(t *testing.T) {
	for _, k := range []string{KindAccessDenied, KindNotFound, KindInvalidPath, KindWriteFailed, KindUserCancelled} {
		if got := Kind(FromKind(k)); got != k {
			t.Errorf("Kind(FromKind(%q)) = %q", k, got)
		}
	}
	if FromKind("nope") != nil {
		t.Error("unknown kind should map to nil")
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(fmt.Errorf("wrapped: %w", ErrUserCancelled)) {
		t.Error("wrapped cancellation not detected")
	}
	if IsCancelled(ErrNotFound) {
		t.Error("not found is not a cancellation")
	}
}
