package processor

import (
	"testing"
	"time"
)

func TestParseArticleDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"Mon, 02 Jan 2006 15:04:05 -0700", time.Date(2006, 1, 2, 15, 4, 5, 0, time.FixedZone("", -7*3600))},
		{"Mon, 2 Jan 2006 15:04:05 +0100", time.Date(2006, 1, 2, 15, 4, 5, 0, time.FixedZone("", 3600))},
		{"2 Jan 2006 15:04:05 -0700", time.Date(2006, 1, 2, 15, 4, 5, 0, time.FixedZone("", -7*3600))},
		// parenthesized timezone names get dropped
		{"Mon, 02 Jan 2006 15:04:05 +0000 (UTC)", time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)},
		// 3-digit offsets are padded to 4
		{"Mon, 02 Jan 2006 15:04:05 +200", time.Date(2006, 1, 2, 15, 4, 5, 0, time.FixedZone("", 2*3600))},
		{"2006-01-02T15:04:05Z", time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseArticleDate(tc.in)
		if err != nil {
			t.Errorf("ParseArticleDate(%q) failed: %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseArticleDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseArticleDateFailures(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date", "(CET)"} {
		if _, err := ParseArticleDate(in); err == nil {
			t.Errorf("ParseArticleDate(%q) should have failed", in)
		}
	}
}
