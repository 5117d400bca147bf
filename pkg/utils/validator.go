package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-']+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateEmailList validates a semicolon-separated list of addresses.
// Empty entries are ignored.
func ValidateEmailList(list string) error {
	for _, entry := range strings.Split(list, ";") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		if err := ValidateEmail(entry); err != nil {
			return err
		}
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`).ReplaceAllString(s, "")
}
