// internal/protocol/protocol_test.go
package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomList(t *testing.T) {
	assert.Equal(t, "3001 8 0 0 0 0 0 0 0 0", RoomList(make([]int, 8)))
	assert.Equal(t, "3001 3 2 0 1", RoomList([]int{2, 0, 1}))
	assert.Equal(t, "3001 0", RoomList(nil))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "3012", Code(MsgGameStarted))
	assert.Equal(t, "4002", Code("  4002 Unrecognized message"))
	assert.Equal(t, "", Code(""))
	assert.Equal(t, "", Code("   "))
}

func TestParseLogin(t *testing.T) {
	user, pass, ok := ParseLogin("/login alice secret")
	assert.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "secret", pass)

	// Best-effort reads may carry surrounding whitespace.
	_, _, ok = ParseLogin("  /login alice secret\n")
	assert.True(t, ok)

	for _, bad := range []string{
		"/login alice",
		"/login alice secret extra",
		"/list",
		"login alice secret",
		"",
	} {
		_, _, ok := ParseLogin(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestParseGuess(t *testing.T) {
	g, ok := ParseGuess("/guess true")
	assert.True(t, ok)
	assert.True(t, g)

	g, ok = ParseGuess("/guess false\n")
	assert.True(t, ok)
	assert.False(t, g)

	for _, bad := range []string{
		"/guess True",
		"/guess yes",
		"/guess",
		"/guess true false",
		"guess true",
		"",
	} {
		_, ok := ParseGuess(bad)
		assert.False(t, ok, "input %q", bad)
	}
}
