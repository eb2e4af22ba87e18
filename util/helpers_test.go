package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("CVELENS_TEST_KEY", "from-env")

	assert.Equal(t, "from-env", GetEnvDefault("CVELENS_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnvDefault("CVELENS_TEST_KEY_MISSING", "fallback"))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   \t"))
	assert.False(t, IsEmpty("x"))
	assert.True(t, IsNotEmpty(" x "))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.False(t, Contains(nil, "a"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "second", FirstNonEmpty("", "  ", "second", "third"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
}
