package orders

import (
	"strings"
	"testing"
)

func TestGenerateCode_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateCode()
		if !strings.HasPrefix(code, CodePrefix) {
			t.Fatalf("code %q missing prefix %q", code, CodePrefix)
		}
		if len(code) != len(CodePrefix)+codeTimeLen+codeRandLen {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, ch := range code[len(CodePrefix):] {
			if !strings.ContainsRune(codeCharset, ch) {
				t.Fatalf("code %q contains %q outside charset", code, ch)
			}
		}
	}
}

func TestGenerateCode_ProposesFreshCandidates(t *testing.T) {
	// generation alone does not guarantee uniqueness, but consecutive calls
	// must not be stuck on one candidate
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[GenerateCode()] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected varied candidates, got %d distinct of 50", len(seen))
	}
}
