package bridge

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted = errors.New("bridge: relay already started")
	ErrInvalidConfig  = errors.New("bridge: invalid config")

	errSendBufferFull = errors.New("send buffer full")
	errConnClosed     = errors.New("connection closed")
)

// BindError is returned by Start when the listening socket cannot be opened.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bridge: listen %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }
