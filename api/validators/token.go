package validators

import "strings"

// BearerToken extracts the credential from an Authorization header. The
// scheme is optional; a blank credential reports false.
func BearerToken(header string) (string, bool) {
	token := strings.TrimSpace(header)
	if len(token) >= 6 && strings.EqualFold(token[:6], "bearer") && (len(token) == 6 || token[6] == ' ' || token[6] == '\t') {
		token = strings.TrimSpace(token[6:])
	}
	return token, token != ""
}
