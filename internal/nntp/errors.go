package nntp

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when a command is issued before Connect.
var ErrNotConnected = errors.New("not connected")

// ErrArticleNotFound is returned when the server answers ARTICLE or BODY
// with 430. Articles can expire between an overview walk and the fetch.
var ErrArticleNotFound = errors.New("no such article")

// ProtocolError reports a malformed or error-status NNTP response.
// The client never retries; retry policy belongs to the caller.
type ProtocolError struct {
	Line string // raw status line as received, CRLF stripped
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("nntp protocol error: %q", e.Line)
}

// IsProtocolError reports whether err is (or wraps) a ProtocolError.
func IsProtocolError(err error) bool {
	var perr *ProtocolError
	return errors.As(err, &perr)
}

// ConnectionError reports a transport-level failure opening or using the
// socket.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("nntp connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
