package processor

import "testing"

func TestNormalizeSubject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Re: [PATCH v2 1/2] foo", "[patch v2] foo"},
		{"Fwd: Re: [PATCH 1/2] bar", "[patch] bar"},
		{"Re: Re: re: hello", "hello"},
		{"[PATCH 3] add feature", "[patch] add feature"},
		{"[PATCH 10/10] last one", "[patch] last one"},
		{"  lots   of\t whitespace  ", "lots of whitespace"},
		{"plain subject", "plain subject"},
		{"[RFC] not a numbered series 1/2", "[rfc] not a numbered series 1/2"},
		{"Re:no space is not a reply prefix", "re:no space is not a reply prefix"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeSubject(tc.in); got != tc.want {
			t.Errorf("NormalizeSubject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
