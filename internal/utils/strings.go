package utils

// UniqueStrings returns the input with duplicates removed, preserving first-seen order.
func UniqueStrings(input []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, val := range input {
		if !seen[val] {
			result = append(result, val)
			seen[val] = true
		}
	}
	return result
}

// TruncateRunes shortens s to at most n runes. Telegram captions reject overly
// long text, so titles are bounded before formatting.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
