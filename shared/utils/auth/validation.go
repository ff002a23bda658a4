package utils

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email format")
	}

	return nil
}

func ValidateRequired(field, fieldName string) error {
	if strings.TrimSpace(field) == "" {
		return errors.New(fieldName + " is required")
	}
	return nil
}

// ValidateSlug checks URL-safe organization slugs (lowercase, digits, dashes)
func ValidateSlug(slug string) error {
	if slug == "" {
		return errors.New("slug is required")
	}
	if len(slug) > 100 {
		return errors.New("slug must be at most 100 characters")
	}
	if !slugRegex.MatchString(slug) {
		return errors.New("slug may only contain lowercase letters, digits and dashes")
	}
	return nil
}
