package checksum

import "testing"

func TestOf(t *testing.T) {
	// sha256("") is well known.
	const empty = "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Of(""); got != empty {
		t.Errorf("Of(\"\") = %s", got)
	}
	if Of("hello") != Bytes([]byte("hello")) {
		t.Error("Of and Bytes disagree")
	}
	if Of("hello") == Of("hello\n") {
		t.Error("distinct content must not collide")
	}
}
