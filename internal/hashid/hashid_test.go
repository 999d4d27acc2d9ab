package hashid

import (
	"strings"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	a := Hash("PC-Barry Lyndon-2026-03-01 19:30")
	b := Hash("PC-Barry Lyndon-2026-03-01 19:30")
	if a != b {
		t.Errorf("Hash not deterministic: %q != %q", a, b)
	}
}

func TestHashLength(t *testing.T) {
	for _, input := range []string{"", "a", "some much longer input with spaces and ünïcode"} {
		got := Hash(input)
		if len(got) != Length {
			t.Errorf("Hash(%q) length = %d, want %d", input, len(got), Length)
		}
	}
}

func TestHashURLSafe(t *testing.T) {
	got := Hash("IC-Amélie-2026-05-04 18:00")
	if strings.ContainsAny(got, "+/=") {
		t.Errorf("Hash produced non-URL-safe characters: %q", got)
	}
}

func TestHashDistinctInputs(t *testing.T) {
	if Hash("PC-Casablanca-2026-01-01 20:00") == Hash("PC-Casablanca-2026-01-01 20:15") {
		t.Error("distinct inputs produced identical hashes")
	}
}
