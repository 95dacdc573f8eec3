package rediskv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorCommandAllowList(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Command("get"))
	require.NoError(t, v.Command("HSET"))

	err := v.Command("FLUSHALL")
	require.ErrorIs(t, err, ErrCommandNotAllowed)
}

func TestValidatorKeyTooLong(t *testing.T) {
	v := NewValidator()
	err := v.Key(strings.Repeat("a", maxKeyLength+1))
	require.ErrorIs(t, err, ErrKeyTooLong)
}

func TestValidatorKeyDangerousPatterns(t *testing.T) {
	v := NewValidator()
	cases := []string{
		"room:eval:1",
		"user:../../etc/passwd",
		"room:1; flushall",
		"room:1\x00extra",
	}
	for _, key := range cases {
		require.ErrorIs(t, v.Key(key), ErrDangerousPattern, key)
	}
}

func TestValidatorKeyAcceptsNormalShapes(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Key("room:42"))
	require.NoError(t, v.Key("room:42:users"))
	require.NoError(t, v.Key("user:1001"))
}

func TestValidatorFieldTooLong(t *testing.T) {
	v := NewValidator()
	err := v.Field(strings.Repeat("f", maxFieldLength+1))
	require.ErrorIs(t, err, ErrFieldTooLong)
}

func TestValidatorValueTooLarge(t *testing.T) {
	v := NewValidator()
	err := v.Value(make([]byte, maxValueSize+1))
	require.ErrorIs(t, err, ErrValueTooLarge)
}

func TestValidatorValueWithinLimit(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Value(make([]byte, maxValueSize)))
}
