package source

import "strings"

// EstimateTokens gives a rough token count from the word count. Exact
// tokenization is not needed to stay inside a context window.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Clip shortens text to about maxTokens, cutting between paragraphs where it
// can. It reports whether anything was cut. maxTokens <= 0 disables clipping.
func Clip(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text, false
	}

	var kept []string
	used := 0
	for _, para := range strings.Split(text, "\n\n") {
		n := EstimateTokens(para)
		if used+n > maxTokens {
			if len(kept) == 0 {
				kept = append(kept, clipWords(para, maxTokens))
			}
			break
		}
		kept = append(kept, para)
		used += n
	}
	return strings.Join(kept, "\n\n"), true
}

func clipWords(para string, maxTokens int) string {
	words := strings.Fields(para)
	n := max(int(float64(maxTokens)/1.33), 1)
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[:n], " ")
}
