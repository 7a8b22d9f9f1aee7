package group

import (
	"strings"
	"testing"
)

func TestNewJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewJoinCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != joinCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), joinCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(joinCodeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	// 100 draws from a 32^8 space colliding would point at a broken generator.
	if len(seen) < 99 {
		t.Errorf("generated %d distinct codes out of 100", len(seen))
	}
}
