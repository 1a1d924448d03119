package domain

import (
	"errors"
	"strings"
)

// ErrorKind is the closed set of fault classes shared by the gate, the
// distributor and the rpc client.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindValidation
	KindStorageConflict
	KindHandlerFailure
	KindTransportConnect
	KindTransportTimeout
	KindTransportDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindValidation:
		return "validation error"
	case KindStorageConflict:
		return "already seen"
	case KindHandlerFailure:
		return "handler failure"
	case KindTransportConnect:
		return "transport connect error"
	case KindTransportTimeout:
		return "transport timeout"
	case KindTransportDecode:
		return "transport decode error"
	default:
		return "unknown error"
	}
}

// Error carries a kind, the failing operation and the underlying cause.
// Two errors match under errors.Is when their kinds are equal and the
// target is a bare sentinel.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Sentinels for errors.Is checks.
var (
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrAlreadySeen      = &Error{Kind: KindStorageConflict}
	ErrHandlerFailure   = &Error{Kind: KindHandlerFailure}
	ErrTransportConnect = &Error{Kind: KindTransportConnect}
	ErrTransportTimeout = &Error{Kind: KindTransportTimeout}
	ErrTransportDecode  = &Error{Kind: KindTransportDecode}
)

// E builds an Error of the given kind.
func E(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether a caller may reasonably retry the operation.
// Only connect failures and timeouts qualify; decode errors and business
// failures do not.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransportConnect, KindTransportTimeout:
		return true
	default:
		return false
	}
}
