package application

import "errors"

var ErrNotFound = errors.New("not found")
var ErrBadRequest = errors.New("bad request")

var (
	// ErrMalformedMessage marks a feed payload that cannot be mapped to a
	// price record. Such messages are dropped, never retried.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrStorage marks a failure of the backing store.
	ErrStorage = errors.New("storage error")
	// ErrRecordRejected marks a record the store refuses on its values, so
	// writing it again fails the same way. It is dropped like a malformed
	// message.
	ErrRecordRejected = errors.New("record rejected by store")
	// ErrUpstreamUnavailable marks a failed read from the external price API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
