// Package directive pulls an embedded video prompt out of free-form model
// text. Personas are instructed to wrap the prompt in <VIDEO_PROMPT> tags
// at the end of a reply, but the extractor accepts the region anywhere.
package directive

import (
	"regexp"
	"strings"
)

const (
	// OpenTag and CloseTag delimit an embedded video prompt. Matching is
	// case-sensitive and the enclosed content may span multiple lines.
	OpenTag  = "<VIDEO_PROMPT>"
	CloseTag = "</VIDEO_PROMPT>"
)

var promptRe = regexp.MustCompile(`(?s)<VIDEO_PROMPT>(.*?)</VIDEO_PROMPT>`)

// Extract scans raw model text for the first well-formed video prompt
// region. It returns the text with the region (tags included) removed and
// trimmed, the trimmed inner prompt, and whether a prompt was found.
//
// Malformed markup (an unterminated open tag, a stray close tag, or no
// tags at all) is not an error: the input is returned trimmed with no
// directive. Only the first well-formed region is recognized; anything
// after it is left in place.
func Extract(raw string) (clean, prompt string, ok bool) {
	loc := promptRe.FindStringSubmatchIndex(raw)
	if loc == nil {
		return strings.TrimSpace(raw), "", false
	}
	prompt = strings.TrimSpace(raw[loc[2]:loc[3]])
	clean = strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	return clean, prompt, true
}
