package speech

import "strings"

// splitTextForTTS breaks text into pieces of at most maxBytes UTF-8
// bytes, preferring sentence boundaries and falling back to word
// boundaries for a single oversize sentence. Order is preserved.
func splitTextForTTS(text string, maxBytes int) []string {
	if len(text) <= maxBytes {
		return []string{text}
	}

	var chunks []string
	current := ""

	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}

	for _, sentence := range splitSentences(text) {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if len(candidate) <= maxBytes {
			current = candidate
			continue
		}

		flush()
		if len(sentence) <= maxBytes {
			current = sentence
			continue
		}

		for _, word := range strings.Fields(sentence) {
			candidate = word
			if current != "" {
				candidate = current + " " + word
			}
			if len(candidate) <= maxBytes {
				current = candidate
				continue
			}
			flush()
			current = word
		}
	}

	flush()
	return chunks
}

// splitSentences splits after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	i := 0
	for i < len(text) {
		if isSentenceEnd(text[i]) && i+1 < len(text) && isSpace(text[i+1]) {
			sentences = append(sentences, text[start:i+1])
			i++
			for i < len(text) && isSpace(text[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSentenceEnd(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
