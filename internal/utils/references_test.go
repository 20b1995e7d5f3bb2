package utils

import (
	"reflect"
	"testing"
)

func TestParseReferences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"<a@x>", []string{"<a@x>"}},
		{"<a@x> <b@y>", []string{"<a@x>", "<b@y>"}},
		{"  <a@x>\t<b@y>\n <c@z>  ", []string{"<a@x>", "<b@y>", "<c@z>"}},
	}
	for _, tc := range cases {
		if got := ParseReferences(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseReferences(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}
