package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("   "))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("acme"))
	assert.NoError(t, ValidateSlug("acme-corp-2"))

	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug("Acme"))
	assert.Error(t, ValidateSlug("acme_corp"))
	assert.Error(t, ValidateSlug("-acme"))
	assert.Error(t, ValidateSlug("acme-"))
	assert.Error(t, ValidateSlug(strings.Repeat("a", 101)))
}

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("value", "name"))
	err := ValidateRequired("  ", "name")
	assert.EqualError(t, err, "name is required")
}
