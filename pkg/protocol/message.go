// Package protocol implements the line-oriented chat wire format shared by
// the server and all clients. One message per line:
//
//	<KIND> [USERNAME] [PAYLOAD]\n
//
// KIND is a decimal code inside angle brackets. The payload is everything
// after the second space boundary, verbatim, so it may contain spaces.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type of a protocol message.
type Kind uint16

const (
	KindJoinRequest   Kind = 101
	KindJoinAck       Kind = 102
	KindLeaveRequest  Kind = 103
	KindLeaveAck      Kind = 104 // reserved, never emitted
	KindDuplicateUser Kind = 105
	KindInvalidCmd    Kind = 106
	KindUserMessage   Kind = 107
	KindWelcome       Kind = 108 // reserved, never emitted
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindJoinRequest:
		return "JOIN_REQUEST"
	case KindJoinAck:
		return "JOIN_ACK"
	case KindLeaveRequest:
		return "LEAVE_REQUEST"
	case KindLeaveAck:
		return "LEAVE_ACK"
	case KindDuplicateUser:
		return "DUPLICATE_USER"
	case KindInvalidCmd:
		return "INVALID_CMD"
	case KindUserMessage:
		return "USER_MESSAGE"
	case KindWelcome:
		return "WELCOME"
	default:
		return "UNKNOWN"
	}
}

// valid reports whether k is one of the recognized wire codes.
func (k Kind) valid() bool {
	return k >= KindJoinRequest && k <= KindWelcome
}

var (
	// ErrEmpty is returned for blank lines. Callers are expected to skip
	// blank lines rather than treat them as protocol violations.
	ErrEmpty = errors.New("protocol: empty line")

	// ErrMalformedKind is returned when the bracketed prefix is missing,
	// not numeric, or not a recognized code.
	ErrMalformedKind = errors.New("protocol: malformed kind")
)

// Message is a decoded protocol unit. Username and Payload are present only
// for kinds that carry them.
type Message struct {
	Kind     Kind
	Username string
	Payload  string
}

// ParseLine decodes a single newline-stripped line into a Message.
//
// The line is split on the first two single-space boundaries only: the first
// field is the bracketed kind, the second (if present) is the username, and
// the remainder is the payload verbatim, interior spaces preserved.
func ParseLine(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Message{}, ErrEmpty
	}

	head, rest, _ := strings.Cut(line, " ")
	body, ok := strings.CutPrefix(head, "<")
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedKind, head)
	}
	body, ok = strings.CutSuffix(body, ">")
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedKind, head)
	}

	code, err := strconv.ParseUint(body, 10, 16)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedKind, head)
	}
	kind := Kind(code)
	if !kind.valid() {
		return Message{}, fmt.Errorf("%w: unrecognized code %d", ErrMalformedKind, code)
	}

	msg := Message{Kind: kind}
	msg.Username, msg.Payload, _ = strings.Cut(rest, " ")
	return msg, nil
}

// Encode renders the message as a wire line, always terminated with a single
// newline. It is the inverse of ParseLine for every kind that is valid to
// send.
func (m Message) Encode() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(strconv.FormatUint(uint64(m.Kind), 10))
	b.WriteByte('>')
	if m.Username != "" {
		b.WriteByte(' ')
		b.WriteString(m.Username)
	}
	if m.Payload != "" {
		b.WriteByte(' ')
		b.WriteString(m.Payload)
	}
	b.WriteByte('\n')
	return b.String()
}
