package processor

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	replyPrefixRe = regexp.MustCompile(`^(re: |fwd: )+`)
	patchTagRe    = regexp.MustCompile(`\[[^\]]*?patch[^\]]*?(\s+\d+(/\d+)?)\]`)
)

// NormalizeSubject canonicalizes a subject line for thread matching:
// lowercased, whitespace collapsed, reply/forward prefixes stripped and
// patch-series numbering removed from bracketed patch tags, so that
// "[PATCH 3/5] foo" and "Re: [PATCH 5/5] foo" land in the same thread.
// The result is never used as the display subject.
func NormalizeSubject(subject string) string {
	subject = strings.ToLower(subject)
	subject = strings.TrimSpace(whitespaceRe.ReplaceAllString(subject, " "))
	subject = replyPrefixRe.ReplaceAllString(subject, "")

	for _, match := range patchTagRe.FindAllStringSubmatch(subject, -1) {
		tag, numbers := match[0], match[1]
		subject = strings.Replace(subject, tag, strings.Replace(tag, numbers, "", 1), 1)
	}
	return subject
}
