package transcriber

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	spaceBeforePun = regexp.MustCompile(`\s+([.,!?;:])`)
	sentenceStart  = regexp.MustCompile(`([.!?])\s+([a-z])`)
)

// postProcess cleans up raw model output: whitespace, capitalization, and
// terminal punctuation.
func postProcess(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = spaceBeforePun.ReplaceAllString(text, "$1")
	text = sentenceStart.ReplaceAllStringFunc(text, strings.ToUpper)

	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	if !strings.ContainsRune(".!?", runes[len(runes)-1]) {
		runes = append(runes, '.')
	}
	return string(runes)
}
