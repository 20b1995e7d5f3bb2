package models

import (
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Display sanitizing for the web layer. Stored headers and bodies stay raw;
// these helpers convert RFC 2047 encoded words and quoted-printable bodies
// to UTF-8 only when rendering.

var headerDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(normalizeCharsetName(charset))
		if err != nil || enc == nil {
			// Latin-1 maps every byte, so it never fails outright
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	},
}

// DecodeHeaderValue decodes RFC 2047 encoded words (=?charset?enc?...?=)
// into UTF-8 for display. Undecodable input is returned with invalid
// sequences replaced rather than dropped.
func DecodeHeaderValue(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return strings.ToValidUTF8(value, "�")
	}
	return strings.ToValidUTF8(decoded, "�")
}

// CleanBodyForDisplay undoes quoted-printable soft breaks and hex escapes
// commonly found in list traffic. Bodies that fail strict decoding fall
// back to removing soft line breaks only.
func CleanBodyForDisplay(body string) string {
	if !strings.Contains(body, "=") {
		return body
	}
	r := quotedprintable.NewReader(strings.NewReader(body))
	decoded, err := io.ReadAll(r)
	if err == nil {
		return strings.ToValidUTF8(string(decoded), "�")
	}
	// lenient fallback: soft breaks and the few escapes that matter visually
	out := strings.ReplaceAll(body, "=\r\n", "")
	out = strings.ReplaceAll(out, "=\n", "")
	for _, b := range []byte{0x20, 0x3D, 0x2E} {
		out = strings.ReplaceAll(out, fmt.Sprintf("=%02X", b), string(rune(b)))
	}
	out = strings.ReplaceAll(out, "=C2=A0", " ")
	return out
}

// normalizeCharsetName maps common charset aliases to the names htmlindex
// expects.
func normalizeCharsetName(charset string) string {
	normalized := strings.ToLower(strings.TrimSpace(charset))

	switch normalized {
	case "iso-8859-1", "iso8859-1", "iso_8859-1", "latin-1", "latin1":
		return "iso-8859-1"
	case "iso-8859-15", "iso8859-15", "iso_8859-15", "latin-9", "latin9":
		return "iso-8859-15"
	case "windows-1250", "cp1250", "win1250":
		return "windows-1250"
	case "windows-1251", "cp1251", "win1251":
		return "windows-1251"
	case "windows-1252", "cp1252", "win1252":
		return "windows-1252"
	case "utf-8", "utf8":
		return "utf-8"
	case "us-ascii", "ascii":
		// windows-1252 is a superset of ASCII
		return "windows-1252"
	default:
		return normalized
	}
}
