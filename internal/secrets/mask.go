// Package secrets provides helpers for redacting sensitive values before
// they reach logs or error payloads.
package secrets

import "net/url"

// Mask redacts a secret, keeping a short prefix for identification in logs.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) > 8 {
		return secret[:4] + "..."
	}
	return "***"
}

// MaskURL redacts the userinfo password component of a URL, if present.
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		username := u.User.Username()
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(username, "***")
		}
	}
	return u.String()
}
