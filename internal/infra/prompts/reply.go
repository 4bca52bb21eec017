package prompts

import (
	"regexp"
	"strings"
)

// ExtractTagged returns the content between <tag> and </tag>, or the whole
// reply without code fences when the tags are missing.
func ExtractTagged(reply, tag string) string {
	open, closing := "<"+tag+">", "</"+tag+">"
	if i := strings.Index(reply, open); i >= 0 {
		rest := reply[i+len(open):]
		if j := strings.Index(rest, closing); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return StripFences(reply)
}

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n(.*?)\\n?```$")

// StripFences removes one surrounding markdown code fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
