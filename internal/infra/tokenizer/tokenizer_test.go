//go:build !integration

package tokenizer

import "testing"

func TestEstimate(t *testing.T) {
	cases := map[string]int{
		"":         0,
		"a":        1,
		"abcd":     1,
		"abcde":    2,
		"привет!!": 2,
	}
	for in, want := range cases {
		if got := (Estimate{}).Count(in); got != want {
			t.Errorf("Estimate(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNew_EmptyEncodingUsesEstimate(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(Estimate); !ok {
		t.Fatalf("expected Estimate, got %T", c)
	}
}
