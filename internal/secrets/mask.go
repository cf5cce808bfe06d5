package secrets

// Mask returns a masked version of a secret string for safe logging.
// Returns the first 4 characters followed by "..." if the secret is longer
// than 8 chars, otherwise "***" to avoid exposing short secrets.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..."
}
