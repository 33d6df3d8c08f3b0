// Package errs is the single error taxonomy shared by every layer of the bot.
//
// Every failure that crosses a package boundary is an *Error carrying a Kind
// (which layer failed) and optionally a Reason (why). Sentinels such as
// ErrPoolTimeout match any *Error with the same Kind and Reason through
// errors.Is, so callers never compare messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the failing layer.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfig
	KindPool
	KindBackend
	KindDispatch
	KindDecode
)

func (k Kind) String() string {
	switch k {
	default:
		return fmt.Sprintf("<UNKNOWN-%d>", k)
	case KindUnknown:
		return "unknown"
	case KindConfig:
		return "config"
	case KindPool:
		return "pool"
	case KindBackend:
		return "backend"
	case KindDispatch:
		return "dispatch"
	case KindDecode:
		return "decode"
	}
}

// Reason narrows a Kind.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonAlreadyInitialized
	ReasonPoolTimeout
	ReasonPoolNotInitialized
	ReasonBackendUnavailable
	ReasonBackendRejected
	ReasonBackendDecode
)

func (r Reason) String() string {
	switch r {
	default:
		return fmt.Sprintf("<UNKNOWN-%d>", r)
	case ReasonNone:
		return ""
	case ReasonAlreadyInitialized:
		return "already initialized"
	case ReasonPoolTimeout:
		return "checkout timed out"
	case ReasonPoolNotInitialized:
		return "not initialized"
	case ReasonBackendUnavailable:
		return "unavailable"
	case ReasonBackendRejected:
		return "rejected"
	case ReasonBackendDecode:
		return "undecodable response"
	}
}

// Error is a tagged error.
type Error struct {
	Kind   Kind
	Reason Reason
	// Op names the operation that failed, e.g. "scryfall.Search".
	Op  string
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Reason != ReasonNone {
		msg += " " + e.Reason.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, and the same
// Reason when target has one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

// Sentinels for errors.Is.
var (
	ErrConfig   = &Error{Kind: KindConfig}
	ErrPool     = &Error{Kind: KindPool}
	ErrBackend  = &Error{Kind: KindBackend}
	ErrDispatch = &Error{Kind: KindDispatch}
	ErrDecode   = &Error{Kind: KindDecode}

	ErrAlreadyInitialized = &Error{Kind: KindPool, Reason: ReasonAlreadyInitialized}
	ErrPoolTimeout        = &Error{Kind: KindPool, Reason: ReasonPoolTimeout}
	ErrPoolNotInitialized = &Error{Kind: KindPool, Reason: ReasonPoolNotInitialized}
	ErrBackendUnavailable = &Error{Kind: KindBackend, Reason: ReasonBackendUnavailable}
	ErrBackendRejected    = &Error{Kind: KindBackend, Reason: ReasonBackendRejected}
	ErrBackendDecode      = &Error{Kind: KindBackend, Reason: ReasonBackendDecode}
)

// E builds an *Error.
func E(kind Kind, reason Reason, op string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Op: op, Err: err}
}

// Config returns a KindConfig error.
func Config(op string, err error) *Error {
	return E(KindConfig, ReasonNone, op, err)
}

// Decode returns a KindDecode error.
func Decode(op string, err error) *Error {
	return E(KindDecode, ReasonNone, op, err)
}

// Dispatch returns a KindDispatch error.
func Dispatch(op string, err error) *Error {
	return E(KindDispatch, ReasonNone, op, err)
}

// Backend returns a KindBackend error with the given reason.
func Backend(reason Reason, op string, err error) *Error {
	return E(KindBackend, reason, op, err)
}

// Pool returns a KindPool error with the given reason.
func Pool(reason Reason, op string, err error) *Error {
	return E(KindPool, reason, op, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
// For joined errors the first tagged member wins.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Public returns a message safe to hand back to an inbound caller: it names
// the failing layer and nothing else.
func Public(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindDecode:
		return "malformed update"
	case KindConfig:
		return "bot misconfigured"
	case KindPool, KindBackend:
		return "search backend failure"
	case KindDispatch:
		return "delivery failure"
	default:
		return "internal error"
	}
}
