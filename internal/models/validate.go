package models

import (
	"regexp"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateUsername returns the list of rules a username violates.
// An empty slice means the username is acceptable.
func ValidateUsername(s string) []string {
	var errs []string
	if len(s) < 3 || len(s) > 20 {
		errs = append(errs, "Username must be between 3 and 20 characters")
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			errs = append(errs, "Username may only contain letters, digits and underscores")
			break
		}
	}
	return errs
}

// ValidatePassword returns the list of rules a password violates.
func ValidatePassword(s string) []string {
	var errs []string
	if len(s) < 8 {
		errs = append(errs, "Password must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		errs = append(errs, "Password must contain at least one letter")
	}
	if !hasDigit {
		errs = append(errs, "Password must contain at least one digit")
	}
	return errs
}
