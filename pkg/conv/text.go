package conv

import (
	"regexp"
)

// MessengerTextLimit is the largest text chunk sent in one Messenger message.
const MessengerTextLimit = 1900

var emphasisRe = regexp.MustCompile(`\*{1,3}`)

// StripEmphasis removes runs of one to three asterisks used as markdown emphasis.
// Messenger renders plain text only.
func StripEmphasis(s string) string {
	return emphasisRe.ReplaceAllString(s, "")
}

// Chunk splits s into consecutive pieces of at most limit runes. Concatenating
// the result gives back s. An empty string yields no chunks.
func Chunk(s string, limit int) []string {
	if s == "" {
		return nil
	}
	if limit <= 0 {
		return []string{s}
	}

	var chunks []string
	count := 0
	start := 0
	for i := range s {
		if count == limit {
			chunks = append(chunks, s[start:i])
			start = i
			count = 0
		}
		count++
	}
	return append(chunks, s[start:])
}
