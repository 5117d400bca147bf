package access

import "strings"

// AllowList is a normalized set of approver email addresses
type AllowList []string

// ParseAllowList splits a semicolon-delimited list, trimming and lower-casing
// each entry and dropping empty ones
func ParseAllowList(s string) AllowList {
	var list AllowList
	for _, part := range strings.Split(s, ";") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email != "" {
			list = append(list, email)
		}
	}
	return list
}

// Contains reports whether email is on the list, ignoring case
func (l AllowList) Contains(email string) bool {
	if email == "" {
		return false
	}
	email = strings.ToLower(email)
	for _, entry := range l {
		if entry == email {
			return true
		}
	}
	return false
}

// String renders the list in its semicolon-delimited form
func (l AllowList) String() string {
	return strings.Join(l, ";")
}

// IsInRole reports whether email appears in the semicolon-delimited allow list
func IsInRole(email, allowList string) bool {
	if email == "" || allowList == "" {
		return false
	}
	return ParseAllowList(allowList).Contains(email)
}
