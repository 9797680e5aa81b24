package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Abcd123!"))
	assert.False(t, StrongPassword("Abc12!"))
	assert.False(t, StrongPassword("abcd1234!"))
	assert.False(t, StrongPassword("ABCD1234!"))
	assert.False(t, StrongPassword("Abcdefgh!"))
	assert.False(t, StrongPassword("Abcd12345"))
}

func TestIdentifierHelpers(t *testing.T) {
	assert.True(t, IsEmailIdentifier("a@x.com"))
	assert.False(t, IsEmailIdentifier("a"))
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
	assert.Equal(t, "john.doe", UsernameFromEmail("john.doe@gmail.com"))
	assert.Equal(t, "johndoetag", UsernameFromEmail("john+doe+tag@gmail.com"))
	assert.Equal(t, "userab", UsernameFromEmail("ab@x.com"))
}
