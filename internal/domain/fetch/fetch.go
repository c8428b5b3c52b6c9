// Package fetch defines the observable states of a query fetch, the cache
// policies that govern it and the errors it can end in.
package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// State is what a consumer observes on a fetch handle.
type State int

const (
	StateLoading State = iota
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*s = StateLoading
	case "success":
		*s = StateSuccess
	case "error":
		*s = StateError
	default:
		return fmt.Errorf("unknown fetch state %q", b)
	}
	return nil
}

// Terminal reports whether the state ends the fetch.
func (s State) Terminal() bool { return s != StateLoading }

// Policy decides when a cached result may stand in for a network round trip.
type Policy string

const (
	// PolicyCacheFirst serves a fresh cached result, otherwise fetches.
	PolicyCacheFirst Policy = "cache-first"
	// PolicyNetworkOnly always fetches; the result is still cached.
	PolicyNetworkOnly Policy = "network-only"
	// PolicyCacheAndNetwork serves any cached result immediately and
	// revalidates in the background (stale-while-revalidate).
	PolicyCacheAndNetwork Policy = "cache-and-network"
	// PolicyCacheOnly never fetches.
	PolicyCacheOnly Policy = "cache-only"
)

const DefaultPolicy = PolicyCacheFirst

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPolicy, nil
	case PolicyCacheFirst, PolicyNetworkOnly, PolicyCacheAndNetwork, PolicyCacheOnly:
		return p, nil
	}
	return "", fmt.Errorf("unknown cache policy %q", s)
}

// Kind classifies a fetch failure.
type Kind string

const (
	// KindNetwork: no response was received.
	KindNetwork Kind = "network"
	// KindProtocol: a response arrived but was malformed or violated the schema.
	KindProtocol Kind = "protocol"
	// KindServer: the data source reported a failure for the query.
	KindServer Kind = "server"
	// KindCancelled: the caller cancelled before the fetch resolved.
	KindCancelled Kind = "cancelled"
	// KindCacheMiss: a cache-only read found nothing.
	KindCacheMiss Kind = "cache_miss"
)

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrNetwork   = &Error{Kind: KindNetwork}
	ErrProtocol  = &Error{Kind: KindProtocol}
	ErrServer    = &Error{Kind: KindServer}
	ErrCancelled = &Error{Kind: KindCancelled}
	ErrCacheMiss = &Error{Kind: KindCacheMiss}
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func NetworkError(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func ProtocolError(op, msg string, err error) *Error {
	return &Error{Kind: KindProtocol, Op: op, Message: msg, Err: err}
}

// ServerError joins the messages reported by the data source.
func ServerError(op string, messages ...string) *Error {
	return &Error{Kind: KindServer, Op: op, Message: strings.Join(messages, "; ")}
}

func CancelledError(op string, err error) *Error {
	return &Error{Kind: KindCancelled, Op: op, Err: err}
}

func CacheMissError(op string) *Error {
	return &Error{Kind: KindCacheMiss, Op: op, Message: "no cached result"}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
