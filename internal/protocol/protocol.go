// internal/protocol/protocol.go
package protocol

import (
	"fmt"
	"strings"
)

// Reply codes, numeric prefix of every server→client message.
const (
	CodeLoginOK      = "1001"
	CodeLoginFailed  = "1002"
	CodeRoomList     = "3001"
	CodeWait         = "3011"
	CodeGameStarted  = "3012"
	CodeRoomFull     = "3013"
	CodeWon          = "3021"
	CodeLost         = "3022"
	CodeTie          = "3023"
	CodeBye          = "4001"
	CodeUnrecognized = "4002"
)

// Full reply texts. The human-readable suffixes are part of the wire format.
const (
	MsgLoginOK      = "1001 Authentication successful"
	MsgLoginFailed  = "1002 Authentication failed"
	MsgWait         = "3011 Wait"
	MsgGameStarted  = "3012 Game started. Please guess true or false"
	MsgRoomFull     = "3013 The room is full"
	MsgWon          = "3021 You won this game"
	MsgLost         = "3022 You lost this game"
	MsgTie          = "3023 The result is a tie"
	MsgBye          = "4001 Bye Bye"
	MsgUnrecognized = "4002 Unrecognized message"
)

// Client→server verbs.
const (
	VerbLogin = "/login"
	VerbList  = "/list"
	VerbEnter = "/enter"
	VerbExit  = "/exit"
	VerbGuess = "/guess"
)

// RoomList renders the 3001 reply: "3001 <n> <count_1>..<count_n>".
func RoomList(counts []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d", CodeRoomList, len(counts))
	for _, c := range counts {
		fmt.Fprintf(&b, " %d", c)
	}
	return b.String()
}

// Code extracts the numeric prefix of a server reply, or "" when the message
// is empty. Clients branch on this.
func Code(msg string) string {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ParseLogin matches "/login <user> <pass>".
func ParseLogin(line string) (user, pass string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != VerbLogin {
		return "", "", false
	}
	return fields[1], fields[2], true
}

// ParseGuess matches "/guess true" and "/guess false". Anything else,
// including other casings, is rejected.
func ParseGuess(line string) (guess, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != VerbGuess {
		return false, false
	}
	switch fields[1] {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
