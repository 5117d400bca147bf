package entity

import "strings"

// Person is a directory entry
type Person struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// SameEmail compares two addresses case-insensitively, ignoring surrounding whitespace
func SameEmail(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// User is the signed-in identity
type User struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
