package textx

import "testing"

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"he\x00llo\nwo\x7frld\t!", "hello\nworld\t!"},
		{"  padded message  ", "padded message"},
		{"\x07\x07", ""},
		{"   \t  ", ""},
	}
	for _, tc := range cases {
		if got := SanitizeText(tc.in); got != tc.want {
			t.Fatalf("SanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
