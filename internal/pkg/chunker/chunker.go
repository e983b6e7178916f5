package chunker

import "fmt"

// MaxMessageLen is the largest text payload the radio firmware accepts in
// one channel message.
const MaxMessageLen = 230

// PartSeparator joins multi-part replies on the wire between server and
// gateway; the gateway splits on it and sends each part separately.
const PartSeparator = "\n---PART---\n"

// Split breaks text into chunks of at most maxLen characters, respecting
// word boundaries. When more than one chunk is produced each is prefixed
// with "Part X/N: " so players can reassemble them despite reordering.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = MaxMessageLen
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var raw []string
	current := ""
	for _, word := range splitWords(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if len(candidate) <= maxLen {
			current = candidate
			continue
		}
		if current != "" {
			raw = append(raw, current)
		}
		// A single word longer than maxLen is force-split.
		for len(word) > maxLen {
			raw = append(raw, word[:maxLen])
			word = word[maxLen:]
		}
		current = word
	}
	if current != "" {
		raw = append(raw, current)
	}

	if len(raw) <= 1 {
		return raw
	}

	n := len(raw)
	out := make([]string, 0, n)
	for i, chunk := range raw {
		prefix := fmt.Sprintf("Part %d/%d: ", i+1, n)
		full := prefix + chunk
		if len(full) > maxLen {
			// Trim the chunk so the prefix still fits.
			full = prefix + chunk[:maxLen-len(prefix)]
		}
		out = append(out, full)
	}
	return out
}

func splitWords(text string) []string {
	var words []string
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}
