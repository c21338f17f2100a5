package downloadcfg

import "testing"

func TestParseCancelMode(t *testing.T) {
	cases := map[string]CancelMode{
		"":          CancelAtBoundary,
		"boundary":  CancelAtBoundary,
		"immediate": CancelImmediate,
		"bogus":     CancelAtBoundary,
	}
	for in, want := range cases {
		if got := ParseCancelMode(in); got != want {
			t.Fatalf("ParseCancelMode(%q) = %q, want %q", in, got, want)
		}
	}
}
