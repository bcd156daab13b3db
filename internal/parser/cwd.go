// Package parser provides stateless scanning of raw shell output for
// embedded directory-change signals.
//
// Two signal classes are recognized: the OSC 7 escape sequence that shells
// emit when configured to report their working directory, and heuristic
// prompt patterns for shells that do not. Prompt matching is best-effort and
// locale-dependent; callers must treat results as advisory display state
// only, never as input to process spawning.
package parser

import (
	"net/url"
	"regexp"
	"strings"
)

// osc7Pattern matches "ESC ] 7 ; file://host/path" terminated by BEL or ST.
var osc7Pattern = regexp.MustCompile(`\x1b\]7;file://[^/\x07\x1b]*(/[^\x07\x1b]*)(?:\x07|\x1b\\)`)

// posixPromptPattern matches prompts like "user@host:/home/u$" and
// "user@host:~/src%". The path ends at the prompt terminator, so paths that
// contain '$', '#' or '%' are truncated; this is inherent to the heuristic.
var posixPromptPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+:(~?/?[^\r\n$#%]*)[$#%]`)

// powershellPromptPattern matches "PS C:\Users\u>" style prompts.
var powershellPromptPattern = regexp.MustCompile(`PS ([A-Za-z]:\\[^>\r\n]*)>`)

// DetectCwd scans an output chunk for a directory-change signal. When
// several signals occur in one chunk the last one wins, since it reflects
// the most recent prompt. Structured OSC 7 sequences take precedence over
// prompt heuristics within the same chunk.
func DetectCwd(data []byte) (string, bool) {
	s := string(data)

	if m := lastSubmatch(osc7Pattern, s); m != "" {
		if dir, err := url.PathUnescape(m); err == nil {
			return dir, true
		}
		return m, true
	}

	if m := lastSubmatch(powershellPromptPattern, s); m != "" {
		return strings.TrimSpace(m), true
	}

	if m := lastSubmatch(posixPromptPattern, s); m != "" {
		dir := strings.TrimSpace(m)
		if dir != "" {
			return dir, true
		}
	}

	return "", false
}

// lastSubmatch returns capture group 1 of the last match, or "".
func lastSubmatch(re *regexp.Regexp, s string) string {
	matches := re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
