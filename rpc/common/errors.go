package common

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/lib/propstore"
)

// ErrUnknownNamespace is returned if a request addresses a namespace the server does not serve
var ErrUnknownNamespace = errors.New("rpc: unknown namespace")

// ErrorCode identifies the kind of error carried by a message
type ErrorCode uint8

const (
	ErrCodeNone             ErrorCode = iota // no error
	ErrCodeInternal                          // untyped error, only the message is kept
	ErrCodeInvalidArgument                   // davlock.ErrInvalidArgument
	ErrCodeDisposed                          // davlock.ErrDisposed or propstore.ErrDisposed
	ErrCodeConflict                          // *davlock.ConflictError, the lock is in Message.Lock
	ErrCodeLimitGlobal                       // *davlock.LimitError with scope davlock.LimitGlobal
	ErrCodeLimitPerURL                       // *davlock.LimitError with scope davlock.LimitPerURL
	ErrCodeUnknownNamespace                  // ErrUnknownNamespace
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNone:
		return "none"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeInvalidArgument:
		return "invalid-argument"
	case ErrCodeDisposed:
		return "disposed"
	case ErrCodeConflict:
		return "conflict"
	case ErrCodeLimitGlobal:
		return "limit-global"
	case ErrCodeLimitPerURL:
		return "limit-per-url"
	case ErrCodeUnknownNamespace:
		return "unknown-namespace"
	default:
		return "unknown"
	}
}

// SetError stores err in the message. Typed errors keep their details so
// that Error can rebuild them on the other side.
func (m *Message) SetError(err error) {
	if err == nil {
		return
	}
	m.Err = err.Error()

	var conflict *davlock.ConflictError
	var limit *davlock.LimitError

	switch {
	case errors.As(err, &conflict):
		lock := conflict.Lock
		m.ErrCode = ErrCodeConflict
		m.Lock = &lock
	case errors.As(err, &limit):
		m.ErrCode = ErrCodeLimitGlobal
		if limit.Scope == davlock.LimitPerURL {
			m.ErrCode = ErrCodeLimitPerURL
		}
		m.Path = limit.Path
		m.Count = uint64(limit.Limit)
	case errors.Is(err, davlock.ErrInvalidArgument):
		m.ErrCode = ErrCodeInvalidArgument
	case errors.Is(err, davlock.ErrDisposed), errors.Is(err, propstore.ErrDisposed):
		m.ErrCode = ErrCodeDisposed
	case errors.Is(err, ErrUnknownNamespace):
		m.ErrCode = ErrCodeUnknownNamespace
	default:
		m.ErrCode = ErrCodeInternal
	}
}

// Error rebuilds the error carried by the message (nil if there is none)
func (m *Message) Error() error {
	if m.ErrCode == ErrCodeNone && m.Err == "" {
		return nil
	}

	switch m.ErrCode {
	case ErrCodeConflict:
		if m.Lock == nil {
			return fmt.Errorf("rpc: conflict response without lock: %s", m.Err)
		}
		return &davlock.ConflictError{Lock: *m.Lock}
	case ErrCodeLimitGlobal:
		return &davlock.LimitError{Scope: davlock.LimitGlobal, Path: m.Path, Limit: uint32(m.Count)}
	case ErrCodeLimitPerURL:
		return &davlock.LimitError{Scope: davlock.LimitPerURL, Path: m.Path, Limit: uint32(m.Count)}
	case ErrCodeInvalidArgument:
		return &remoteError{msg: m.Err, sentinel: davlock.ErrInvalidArgument}
	case ErrCodeDisposed:
		return &remoteError{msg: m.Err, sentinel: davlock.ErrDisposed}
	case ErrCodeUnknownNamespace:
		return &remoteError{msg: m.Err, sentinel: ErrUnknownNamespace}
	default:
		return errors.New(m.Err)
	}
}

// remoteError keeps the server's message while matching the local sentinel
type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.sentinel }
